package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

var _ io.WriteCloser = (*Rotator)(nil)

// Rotator writes to a log file and rotates it once it reaches MaxSizeMB.
// Rotated files get a timestamp suffix; at most MaxBackups of them are kept.
type Rotator struct {
	Filename   string
	MaxSizeMB  int // 0 means 10 MB
	MaxBackups int // 0 means keep everything

	mu   sync.Mutex
	file *os.File
	size int64
}

// Write appends p to the current log file, rotating first when the write
// would push it past the size limit.
func (r *Rotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.file == nil {
		if err := r.open(); err != nil {
			return 0, err
		}
	}

	if r.size+int64(len(p)) > r.maxBytes() {
		if err := r.rotate(); err != nil {
			return 0, err
		}
	}

	n, err := r.file.Write(p)
	r.size += int64(n)
	return n, err
}

// Close closes the current log file.
func (r *Rotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *Rotator) maxBytes() int64 {
	if r.MaxSizeMB <= 0 {
		return 10 * 1024 * 1024
	}
	return int64(r.MaxSizeMB) * 1024 * 1024
}

func (r *Rotator) open() error {
	if err := os.MkdirAll(filepath.Dir(r.Filename), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(r.Filename, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return err
	}
	r.file = f
	r.size = info.Size()
	return nil
}

func (r *Rotator) rotate() error {
	if r.file != nil {
		r.file.Close()
		r.file = nil
	}

	backup := r.backupName(time.Now())
	if err := os.Rename(r.Filename, backup); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to rotate log file: %w", err)
	}
	r.cleanup()

	f, err := os.OpenFile(r.Filename, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to open fresh log file: %w", err)
	}
	r.file = f
	r.size = 0
	return nil
}

func (r *Rotator) backupName(t time.Time) string {
	dir := filepath.Dir(r.Filename)
	base := filepath.Base(r.Filename)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext)
	return filepath.Join(dir, fmt.Sprintf("%s-%s%s", prefix, t.Format("2006-01-02T15-04-05.000"), ext))
}

// cleanup removes the oldest backups beyond MaxBackups.
func (r *Rotator) cleanup() {
	if r.MaxBackups <= 0 {
		return
	}

	base := filepath.Base(r.Filename)
	ext := filepath.Ext(base)
	prefix := strings.TrimSuffix(base, ext) + "-"

	entries, err := os.ReadDir(filepath.Dir(r.Filename))
	if err != nil {
		return
	}

	var backups []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ext) {
			continue
		}
		backups = append(backups, name)
	}
	// Timestamp suffixes sort lexically in chronological order.
	sort.Strings(backups)

	for len(backups) > r.MaxBackups {
		os.Remove(filepath.Join(filepath.Dir(r.Filename), backups[0]))
		backups = backups[1:]
	}
}
