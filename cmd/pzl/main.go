package main

import (
	"context"
	"fmt"
	"os"

	"puzzle-helper/internal/api"
	"puzzle-helper/internal/auth"
	"puzzle-helper/internal/cli"
	"puzzle-helper/internal/config"
	"puzzle-helper/internal/device"
	"puzzle-helper/internal/logger"
	"puzzle-helper/internal/session"
	"puzzle-helper/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfgPath := config.DefaultPath()
	if p := os.Getenv("PZL_CONFIG"); p != "" {
		cfgPath = p
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// First run: assign a stable device id and persist the resolved config so
	// the user has a file to edit.
	if cfg.DeviceID == "" {
		cfg.DeviceID = device.ID()
		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
	}

	verbose := os.Getenv("PZL_VERBOSE") != ""
	logFile := &logger.Rotator{Filename: cfg.LogPath}
	defer logFile.Close()
	log := logger.New(os.Stderr, logFile, verbose)

	db, err := store.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open local database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	var provider session.Provider
	if cfg.AuthConfigured() {
		cognito, err := auth.NewCognito(ctx, cfg.Region, cfg.ClientID)
		if err != nil {
			return fmt.Errorf("failed to initialize identity provider: %w", err)
		}
		provider = cognito
	} else {
		log.Debug("Identity provider not configured, running in anonymous mode",
			"user_id", cfg.UserID)
	}

	sess := session.New(provider, db, cfg.UserID, log)

	apiClient := api.NewClient(cfg.Endpoint, cfg.HTTPTimeout)
	apiClient.Tokens = sess

	app := &cli.App{
		CfgPath: cfgPath,
		Cfg:     cfg,
		Logger:  log,
		Store:   db,
		Session: sess,
		API:     apiClient,
		Out:     os.Stdout,
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}
