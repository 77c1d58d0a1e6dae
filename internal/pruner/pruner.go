// Package pruner keeps the drop directory below the configured size cap by
// deleting the oldest files that have already been uploaded. Pending files
// are never touched.
package pruner

import (
	"log/slog"
	"os"
	"time"

	"puzzle-helper/internal/config"
	"puzzle-helper/internal/store"
)

type Pruner struct {
	cfg    *config.Config
	store  *store.Store
	logger *slog.Logger
	stop   chan struct{}
}

func NewPruner(cfg *config.Config, s *store.Store, logger *slog.Logger) *Pruner {
	return &Pruner{
		cfg:    cfg,
		store:  s,
		logger: logger,
		stop:   make(chan struct{}),
	}
}

func (p *Pruner) Start() {
	ticker := time.NewTicker(1 * time.Minute)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.Prune()
			case <-p.stop:
				return
			}
		}
	}()
}

func (p *Pruner) Stop() {
	close(p.stop)
}

// Prune deletes uploaded files, oldest first, until the tracked total drops
// below the cap.
func (p *Pruner) Prune() {
	maxBytes := int64(p.cfg.MaxDropSizeGB * 1024 * 1024 * 1024)

	currentSize, err := p.store.GetTotalDropSize()
	if err != nil {
		p.logger.Error("Pruner: error getting total size", "error", err)
		return
	}
	if currentSize <= maxBytes {
		return
	}

	candidates, err := p.store.GetPruneCandidates(100)
	if err != nil {
		p.logger.Error("Pruner: error fetching candidates", "error", err)
		return
	}

	for _, c := range candidates {
		if currentSize <= maxBytes {
			break
		}

		if err := os.Remove(c.Path); err != nil && !os.IsNotExist(err) {
			p.logger.Error("Pruner: failed to delete file", "path", c.Path, "error", err)
			continue
		}
		if err := p.store.RemoveDrop(c.Path); err != nil {
			p.logger.Error("Pruner: failed to remove journal entry", "path", c.Path, "error", err)
			continue
		}

		currentSize -= c.Size
		p.logger.Info("Pruner: deleted uploaded file", "path", c.Path, "freed", c.Size)
	}
}
