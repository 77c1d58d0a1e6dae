package daemon

// Package daemon wires the drop-folder watch mode into an OS service. It
// resolves the session once at startup, then lets the watcher feed the drop
// journal and the worker drain it into puzzle uploads.

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kardianos/service"

	"puzzle-helper/internal/api"
	"puzzle-helper/internal/auth"
	"puzzle-helper/internal/config"
	"puzzle-helper/internal/drop"
	"puzzle-helper/internal/pruner"
	"puzzle-helper/internal/session"
	"puzzle-helper/internal/store"
	"puzzle-helper/internal/sysinfo"
	"puzzle-helper/internal/watcher"
)

// Daemon implements service.Interface and controls the watch-mode lifecycle.
type Daemon struct {
	Logger  *slog.Logger
	Cfg     *config.Config
	CfgPath string

	dbStore    *store.Store
	workerSvc  *drop.Worker
	prunerSvc  *pruner.Pruner
	watcherSvc *watcher.Watcher
}

// Start is called when the service is started. It initializes the store,
// resolves the session, and launches the worker, pruner and watcher.
func (d *Daemon) Start(s service.Service) error {
	var err error
	if d.Cfg == nil {
		d.Cfg, err = config.Load(d.CfgPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
	}
	if _, err := os.Stat(d.CfgPath); err != nil {
		if err := config.Save(d.CfgPath, d.Cfg); err != nil {
			d.Logger.Warn("Failed to write config file", "path", d.CfgPath, "error", err)
		}
	}

	d.dbStore, err = store.NewStore(d.Cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to init store at %s: %w", d.Cfg.DBPath, err)
	}

	// Resolve the session once; the daemon reuses the persisted identity.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var provider session.Provider
	if d.Cfg.AuthConfigured() {
		provider, err = auth.NewCognito(ctx, d.Cfg.Region, d.Cfg.ClientID)
		if err != nil {
			return fmt.Errorf("failed to init identity provider: %w", err)
		}
	} else {
		d.Logger.Warn("Identity provider not configured, running in anonymous mode")
	}

	sess := session.New(provider, d.dbStore, d.Cfg.UserID, d.Logger)
	sess.Resolve(ctx)

	client := api.NewClient(d.Cfg.Endpoint, d.Cfg.HTTPTimeout)
	client.Tokens = sess

	d.prunerSvc = pruner.NewPruner(d.Cfg, d.dbStore, d.Logger)
	d.prunerSvc.Start()

	d.workerSvc = drop.NewWorker(d.Cfg, d.dbStore, client, sess.UserID(), d.Logger)
	d.workerSvc.Start()

	if err := os.MkdirAll(d.Cfg.WatchPath, 0755); err != nil {
		return fmt.Errorf("failed to create watch dir: %w", err)
	}

	debounceDur, err := time.ParseDuration(d.Cfg.DebounceDuration)
	if err != nil {
		d.Logger.Error("Invalid debounce duration, defaulting to 500ms", "error", err)
		debounceDur = 500 * time.Millisecond
	}

	d.watcherSvc, err = watcher.NewWatcher(d.Cfg.WatchPath, debounceDur, d.processFile, d.Logger)
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	// Catch files dropped while the daemon was offline.
	go d.scanExistingFiles()

	d.Logger.Info("Puzzle watch daemon started",
		"watch_path", d.Cfg.WatchPath, "endpoint", d.Cfg.Endpoint,
		"user_id", sess.UserID(), "device_id", d.Cfg.DeviceID)
	for _, kv := range sysinfo.Collect() {
		d.Logger.Debug("Host", "key", kv[0], "value", kv[1])
	}

	return nil
}

// processFile journals a detected file as PENDING; the worker picks it up.
func (d *Daemon) processFile(path string) {
	info, err := os.Stat(path)
	if err != nil {
		d.Logger.Error("stat error", "path", path, "error", err)
		return
	}
	if info.IsDir() {
		return
	}

	if err := d.dbStore.AddOrUpdateDrop(path, info.Size(), info.ModTime()); err != nil {
		d.Logger.Error("journal error", "path", path, "error", err)
	} else {
		d.Logger.Info("Detected", "path", path)
	}
}

// scanExistingFiles walks the watch path and journals all existing files.
func (d *Daemon) scanExistingFiles() {
	d.Logger.Info("Performing initial scan", "path", d.Cfg.WatchPath)
	err := filepath.Walk(d.Cfg.WatchPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			d.processFile(path)
		}
		return nil
	})
	if err != nil {
		d.Logger.Error("Initial scan failed", "error", err)
	}
}

// Stop is called when the service is being stopped.
func (d *Daemon) Stop(s service.Service) error {
	d.Logger.Info("Stopping puzzle watch daemon...")
	if d.watcherSvc != nil {
		d.watcherSvc.Close()
	}
	if d.workerSvc != nil {
		d.workerSvc.Stop()
	}
	if d.prunerSvc != nil {
		d.prunerSvc.Stop()
	}
	if d.dbStore != nil {
		d.dbStore.Close()
	}
	return nil
}
