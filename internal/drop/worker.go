package drop

import (
	"context"
	"log/slog"
	"os"
	"time"

	"puzzle-helper/internal/api"
	"puzzle-helper/internal/config"
	"puzzle-helper/internal/store"
	"puzzle-helper/internal/upload"
	"puzzle-helper/internal/validate"
)

// Worker drains the drop journal: for each PENDING file it creates a puzzle
// project and runs the two-phase upload flow, then marks the file UPLOADED.
// A failed file stays PENDING and is retried on the next batch.
type Worker struct {
	cfg       *config.Config
	store     *store.Store
	apiClient *api.Client
	flow      *upload.Flow
	userID    string
	logger    *slog.Logger
	stop      chan struct{}
}

// NewWorker creates a drop worker. userID is the owner for created puzzles,
// either the signed-in identity or the configured fallback.
func NewWorker(cfg *config.Config, s *store.Store, client *api.Client, userID string, logger *slog.Logger) *Worker {
	return &Worker{
		cfg:       cfg,
		store:     s,
		apiClient: client,
		flow:      upload.NewFlow(client, logger),
		userID:    userID,
		logger:    logger,
		stop:      make(chan struct{}),
	}
}

// Start launches the poll loop.
func (w *Worker) Start() {
	go func() {
		ticker := time.NewTicker(2 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.processBatch()
			case <-w.stop:
				return
			}
		}
	}()
}

// Stop terminates the poll loop.
func (w *Worker) Stop() {
	close(w.stop)
}

func (w *Worker) processBatch() {
	files, err := w.store.GetPendingDrops(10)
	if err != nil {
		w.logger.Error("Drop: error fetching pending files", "error", err)
		return
	}

	for _, f := range files {
		w.process(f)
	}
}

// process registers one dropped file as a puzzle and uploads its image.
func (w *Worker) process(f store.DropRecord) {
	if _, err := os.Stat(f.Path); err != nil {
		if os.IsNotExist(err) {
			w.logger.Warn("Drop: file vanished before processing, removing from journal", "path", f.Path)
			_ = w.store.RemoveDrop(f.Path)
		} else {
			w.logger.Error("Drop: stat failed", "path", f.Path, "error", err)
		}
		return
	}

	if err := validate.ImageFile(f.Path); err != nil {
		w.logger.Warn("Drop: ignoring non-image file", "path", f.Path, "error", err)
		_ = w.store.RemoveDrop(f.Path)
		return
	}

	name, pieceCount := ParseLayout(w.cfg.WatchPath, f.Path)

	ctx := context.Background()
	created, err := w.apiClient.CreatePuzzle(ctx, api.CreateRequest{
		PuzzleName: name,
		PieceCount: pieceCount,
		UserID:     w.userID,
	})
	if err != nil {
		w.logger.Error("Drop: puzzle creation failed", "path", f.Path, "name", name, "error", err)
		return
	}
	w.logger.Info("Drop: puzzle created", "path", f.Path, "puzzle_id", created.PuzzleID, "pieces", pieceCount)

	start := time.Now()
	puzzle, err := w.flow.Run(ctx, created.PuzzleID, w.userID, f.Path)
	if err != nil {
		w.logger.Error("Drop: upload failed", "path", f.Path, "puzzle_id", created.PuzzleID, "error", err)
		return
	}

	if err := w.store.MarkDropUploaded(f.Path, puzzle.PuzzleID, w.flow.AttemptID()); err != nil {
		w.logger.Error("Drop: failed to mark as uploaded", "path", f.Path, "error", err)
		return
	}
	w.logger.Info("Drop: upload success", "path", f.Path, "puzzle_id", puzzle.PuzzleID,
		"status", puzzle.Status, "duration", time.Since(start))
}
