package upload

// Package upload implements the two-phase image attach protocol:
// request a presigned upload grant from the API, PUT the file bytes straight
// to object storage, then re-fetch the puzzle record so callers observe the
// new status. The phases run strictly in that order and a failure in either
// one aborts the whole attempt; the puzzle stays pending until all three
// steps succeed. There is no resume and no automatic retry.

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/oklog/ulid/v2"

	"puzzle-helper/internal/api"
	"puzzle-helper/internal/validate"
)

// State is the observable progress of one upload attempt.
type State int

const (
	StateNoFile       State = iota // No (usable) file selected; nothing sent
	StateRequesting                // Asking the API for an upload grant
	StateTransferring              // PUTting bytes to object storage
	StateRefetching                // Re-fetching the puzzle record
	StateSucceeded                 // All phases done, record refreshed
	StateFailed                    // A phase failed; attempt aborted
)

func (s State) String() string {
	switch s {
	case StateNoFile:
		return "no-file"
	case StateRequesting:
		return "requesting"
	case StateTransferring:
		return "transferring"
	case StateRefetching:
		return "refetching"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	}
	return "unknown"
}

// ErrNoFile is returned when the local precondition fails; no network call
// has been made in that case.
var ErrNoFile = errors.New("no image file selected")

// Flow drives one upload attempt at a time.
type Flow struct {
	apiClient *api.Client
	logger    *slog.Logger
	state     State
	attemptID string
}

// NewFlow creates an upload flow on top of the given API client.
func NewFlow(client *api.Client, logger *slog.Logger) *Flow {
	return &Flow{apiClient: client, logger: logger, state: StateNoFile}
}

// State returns the state the last attempt ended in (or StateNoFile before
// any attempt).
func (f *Flow) State() State {
	return f.state
}

// AttemptID returns the correlation id of the last attempt, empty before the
// first one.
func (f *Flow) AttemptID() string {
	return f.attemptID
}

// Run attaches the image at filePath to the given pending puzzle and returns
// the re-fetched record. Each attempt gets a fresh ULID for log correlation.
func (f *Flow) Run(ctx context.Context, puzzleID, userID, filePath string) (*api.Puzzle, error) {
	f.attemptID = ulid.Make().String()
	logger := f.logger.With("attempt_id", f.attemptID, "puzzle_id", puzzleID)

	// Local precondition: a selected, readable image file. Rejected without
	// any network call.
	if filePath == "" {
		f.state = StateNoFile
		return nil, ErrNoFile
	}
	info, err := os.Stat(filePath)
	if err != nil {
		f.state = StateNoFile
		return nil, fmt.Errorf("%w: %v", ErrNoFile, err)
	}
	if info.IsDir() {
		f.state = StateNoFile
		return nil, fmt.Errorf("%w: %s is a directory", ErrNoFile, filePath)
	}
	if err := validate.ImageFile(filePath); err != nil {
		f.state = StateNoFile
		return nil, fmt.Errorf("%w: %v", ErrNoFile, err)
	}

	// Phase 1: upload grant.
	f.state = StateRequesting
	fileName := filepath.Base(filePath)
	grant, err := f.apiClient.RequestUploadURL(ctx, puzzleID, api.UploadURLRequest{
		FileName: fileName,
		UserID:   userID,
	})
	if err != nil {
		f.state = StateFailed
		logger.Error("Upload: grant request failed", "file", fileName, "error", err)
		return nil, fmt.Errorf("failed to get upload URL: %w", err)
	}

	// Phase 2: direct PUT to object storage, bypassing the API.
	f.state = StateTransferring
	logger.Info("Upload: transferring", "file", fileName, "size", info.Size(), "expires_in", grant.ExpiresIn)
	if err := f.putFile(ctx, grant.UploadURL, filePath, info.Size()); err != nil {
		f.state = StateFailed
		logger.Error("Upload: transfer failed", "file", fileName, "error", err)
		return nil, fmt.Errorf("failed to upload image: %w", err)
	}

	// Phase 3: re-fetch so the caller sees the non-pending status.
	f.state = StateRefetching
	puzzle, err := f.apiClient.GetPuzzle(ctx, puzzleID, userID)
	if err != nil {
		f.state = StateFailed
		logger.Error("Upload: refresh after transfer failed", "error", err)
		return nil, fmt.Errorf("image uploaded but refreshing the puzzle failed: %w", err)
	}

	f.state = StateSucceeded
	logger.Info("Upload: success", "file", fileName, "status", puzzle.Status)
	return puzzle, nil
}

// putFile performs the raw PUT of the file content to the granted URL, using
// the file's content type as the transfer's content type header. Any 2xx
// status counts as success.
func (f *Flow) putFile(ctx context.Context, uploadURL, path string, size int64) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, file)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.ContentLength = size
	req.Header.Set("Content-Type", contentType)

	resp, err := f.apiClient.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("storage responded with status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}
