// Package validate holds the client-side input checks that run before any
// network call is made. The server enforces the same rules; failing here just
// saves the round trip.
package validate

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"puzzle-helper/internal/api"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// PuzzleName requires a non-empty display name after trimming whitespace.
func PuzzleName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("puzzle name must not be empty")
	}
	return nil
}

// PieceCount requires one of the fixed enumerated piece counts.
func PieceCount(n int) error {
	if !api.ValidPieceCount(n) {
		return fmt.Errorf("piece count must be one of %v, got %d", api.PieceCounts, n)
	}
	return nil
}

// ImageFile requires a filename with a known image extension.
func ImageFile(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	if !imageExtensions[ext] {
		return fmt.Errorf("unsupported image file %q (expected jpg, jpeg, png, gif, webp or bmp)", name)
	}
	return nil
}

// Password enforces the identity provider's password policy locally:
// at least 8 characters with an upper-case letter, a lower-case letter and a
// digit. The provider enforces the same policy server-side.
func Password(pw string) error {
	if len(pw) < 8 {
		return errors.New("password must be at least 8 characters long")
	}
	var upper, lower, digit bool
	for _, r := range pw {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}
	if !upper {
		return errors.New("password must contain an upper-case letter")
	}
	if !lower {
		return errors.New("password must contain a lower-case letter")
	}
	if !digit {
		return errors.New("password must contain a digit")
	}
	return nil
}

// Email does a minimal sanity check; the provider is the authority.
func Email(addr string) error {
	if !strings.Contains(addr, "@") || strings.TrimSpace(addr) == "" {
		return fmt.Errorf("invalid email address %q", addr)
	}
	return nil
}
