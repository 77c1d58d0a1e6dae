package api

import (
	"time"
)

// Status is the processing state of a puzzle as reported by the API.
// It only ever moves forward: pending -> uploaded -> processing -> completed.
type Status string

const (
	StatusPending    Status = "pending"    // Record exists, no image attached yet
	StatusUploaded   Status = "uploaded"   // Image landed in object storage
	StatusProcessing Status = "processing" // Backend is cutting the image into pieces
	StatusCompleted  Status = "completed"  // Processing finished
)

// Valid reports whether s is one of the known status values.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusUploaded, StatusProcessing, StatusCompleted:
		return true
	}
	return false
}

// Pending reports whether the puzzle still has no image attached.
func (s Status) Pending() bool {
	return s == StatusPending
}

// PieceCounts is the closed set of piece counts the API accepts.
var PieceCounts = []int{100, 300, 500, 1000, 2000}

// ValidPieceCount reports whether n is one of the allowed piece counts.
func ValidPieceCount(n int) bool {
	for _, c := range PieceCounts {
		if n == c {
			return true
		}
	}
	return false
}

// Puzzle is a user-owned puzzle project record.
// FileName and S3Key stay empty until an image has been attached; a puzzle
// with StatusPending never carries an S3Key.
type Puzzle struct {
	PuzzleID   string    `json:"puzzleId"`
	UserID     string    `json:"userId"`
	PuzzleName string    `json:"puzzleName"`
	PieceCount int       `json:"pieceCount"`
	FileName   string    `json:"fileName,omitempty"`
	S3Key      string    `json:"s3Key,omitempty"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// CreateRequest is the payload for registering a new puzzle project.
// The record is created without an image; the upload is a separate call.
type CreateRequest struct {
	PuzzleName string `json:"puzzleName"`
	PieceCount int    `json:"pieceCount"`
	UserID     string `json:"userId"`
}

// CreateResponse is the API response for a successful puzzle creation.
type CreateResponse struct {
	PuzzleID   string `json:"puzzleId"`
	PuzzleName string `json:"puzzleName"`
	PieceCount int    `json:"pieceCount"`
	Status     Status `json:"status"`
	Message    string `json:"message"`
}

// UploadURLRequest asks the API for a presigned upload target for an
// existing puzzle.
type UploadURLRequest struct {
	FileName string `json:"fileName"`
	UserID   string `json:"userId"`
}

// Grant is a short-lived, single-use upload authorization. It is consumed by
// exactly one PUT to UploadURL and never persisted.
type Grant struct {
	PuzzleID  string `json:"puzzleId"`
	UploadURL string `json:"uploadUrl"`
	ExpiresIn int    `json:"expiresIn"` // Seconds until UploadURL stops working
	Message   string `json:"message"`
}

// ListResponse wraps the puzzle collection returned for one user.
type ListResponse struct {
	Puzzles []Puzzle `json:"puzzles"`
}
