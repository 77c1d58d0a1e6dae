package drop

// Package drop turns files placed in the watch directory into puzzle projects.
// The directory layout encodes the puzzle metadata: a file at
// {watch}/1000/fuji.jpg becomes a 1000-piece puzzle named "fuji". Files
// dropped directly into the watch root get the default piece count.

import (
	"path/filepath"
	"strconv"
	"strings"

	"puzzle-helper/internal/api"
)

// DefaultPieceCount is used for files whose path does not encode a count.
const DefaultPieceCount = 300

// ParseLayout derives the puzzle name and piece count from a file's location
// relative to the watch root. The first directory component is used as the
// piece count when it parses to one of the allowed values; anything else
// falls back to DefaultPieceCount. The name is the file name without its
// extension.
func ParseLayout(root, path string) (name string, pieceCount int) {
	base := filepath.Base(path)
	name = strings.TrimSuffix(base, filepath.Ext(base))
	pieceCount = DefaultPieceCount

	rel, err := filepath.Rel(root, path)
	if err != nil {
		return name, pieceCount
	}

	dir := filepath.Dir(rel)
	if dir == "." {
		return name, pieceCount
	}

	parts := strings.Split(dir, string(filepath.Separator))
	if n, err := strconv.Atoi(parts[0]); err == nil && api.ValidPieceCount(n) {
		pieceCount = n
	}
	return name, pieceCount
}
