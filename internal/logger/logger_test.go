package logger

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
)

// captureLogger records messages per level, standing in for the OS service log.
type captureLogger struct {
	infos    []string
	warnings []string
	errors   []string
}

func (c *captureLogger) Error(v ...interface{}) error {
	c.errors = append(c.errors, fmt.Sprint(v...))
	return nil
}

func (c *captureLogger) Warning(v ...interface{}) error {
	c.warnings = append(c.warnings, fmt.Sprint(v...))
	return nil
}

func (c *captureLogger) Info(v ...interface{}) error {
	c.infos = append(c.infos, fmt.Sprint(v...))
	return nil
}

func (c *captureLogger) Errorf(format string, a ...interface{}) error {
	c.errors = append(c.errors, fmt.Sprintf(format, a...))
	return nil
}

func (c *captureLogger) Warningf(format string, a ...interface{}) error {
	c.warnings = append(c.warnings, fmt.Sprintf(format, a...))
	return nil
}

func (c *captureLogger) Infof(format string, a ...interface{}) error {
	c.infos = append(c.infos, fmt.Sprintf(format, a...))
	return nil
}

func TestNewServiceRoutesLevels(t *testing.T) {
	capture := &captureLogger{}
	var file bytes.Buffer

	log := NewService(capture, &file)
	log.Info("daemon started", "watch_path", "/drop")
	log.Warn("identity provider not configured")
	log.Error("upload failed", "error", "connection refused")

	if len(capture.infos) != 1 || len(capture.warnings) != 1 || len(capture.errors) != 1 {
		t.Fatalf("expected one message per level, got %d/%d/%d",
			len(capture.infos), len(capture.warnings), len(capture.errors))
	}

	if !strings.Contains(capture.infos[0], "daemon started") ||
		!strings.Contains(capture.infos[0], "watch_path=/drop") {
		t.Errorf("info message lost content: %q", capture.infos[0])
	}
	// The OS log stamps time and level itself; the forwarded line must not.
	for _, msg := range []string{capture.infos[0], capture.warnings[0], capture.errors[0]} {
		if strings.Contains(msg, "level=") || strings.Contains(msg, "time=") {
			t.Errorf("forwarded message carries redundant fields: %q", msg)
		}
	}

	// The log file gets the full record alongside.
	if !strings.Contains(file.String(), "daemon started") ||
		!strings.Contains(file.String(), "level=INFO") {
		t.Errorf("log file missing records:\n%s", file.String())
	}
}

func TestServiceHandlerCarriesAttrsAndGroups(t *testing.T) {
	capture := &captureLogger{}
	var file bytes.Buffer

	log := NewService(capture, &file)
	log.With("device_id", "dev-1").WithGroup("drop").Info("detected", "path", "/drop/fuji.jpg")

	if len(capture.infos) != 1 {
		t.Fatalf("expected one info message, got %d", len(capture.infos))
	}
	got := capture.infos[0]
	if !strings.Contains(got, "detected") {
		t.Errorf("message missing: %q", got)
	}
	if !strings.Contains(got, "device_id=dev-1") {
		t.Errorf("bound attr missing: %q", got)
	}
	if !strings.Contains(got, "drop.path=/drop/fuji.jpg") {
		t.Errorf("group-qualified attr missing: %q", got)
	}
}
