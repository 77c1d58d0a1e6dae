package logger

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"

	"github.com/kardianos/service"
	slogmulti "github.com/samber/slog-multi"
)

// New configures the global slog.Logger to write to both the given console
// writer and the log file (usually a *Rotator). Verbose lowers the console
// level to Debug; the file always gets everything.
func New(console io.Writer, logFile io.Writer, verbose bool) *slog.Logger {
	consoleLevel := slog.LevelInfo
	if verbose {
		consoleLevel = slog.LevelDebug
	}

	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{Level: consoleLevel})
	fileHandler := slog.NewTextHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug})

	logger := slog.New(slogmulti.Fanout(fileHandler, consoleHandler))
	slog.SetDefault(logger)
	return logger
}

// NewService wires slog to the OS service logger (event log / syslog) in
// addition to the log file. Used by the watch daemon.
func NewService(svc service.Logger, logFile io.Writer) *slog.Logger {
	fileHandler := slog.NewTextHandler(logFile, nil)
	logger := slog.New(slogmulti.Fanout(fileHandler, &serviceHandler{svc: svc}))
	slog.SetDefault(logger)
	return logger
}

// serviceHandler adapts slog records to the kardianos service logger. The
// record is formatted through a throwaway TextHandler with time and level
// stripped, since the OS log adds those itself. Bound attrs and groups are
// replayed in the order they were attached so qualification matches slog.
type serviceHandler struct {
	svc service.Logger
	ops []handlerOp
}

type handlerOp struct {
	group string
	attrs []slog.Attr
}

func (h *serviceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.svc != nil
}

func (h *serviceHandler) Handle(ctx context.Context, r slog.Record) error {
	if h.svc == nil {
		return nil
	}

	var buf bytes.Buffer
	var handler slog.Handler = slog.NewTextHandler(&buf, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey || a.Key == slog.LevelKey {
				return slog.Attr{}
			}
			return a
		},
	})
	for _, op := range h.ops {
		if op.group != "" {
			handler = handler.WithGroup(op.group)
		} else {
			handler = handler.WithAttrs(op.attrs)
		}
	}

	if err := handler.Handle(ctx, r); err != nil {
		return err
	}
	msg := strings.TrimSpace(buf.String())

	switch {
	case r.Level >= slog.LevelError:
		return h.svc.Error(msg)
	case r.Level >= slog.LevelWarn:
		return h.svc.Warning(msg)
	default:
		return h.svc.Info(msg)
	}
}

func (h *serviceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	ops := make([]handlerOp, 0, len(h.ops)+1)
	ops = append(ops, h.ops...)
	ops = append(ops, handlerOp{attrs: attrs})
	return &serviceHandler{svc: h.svc, ops: ops}
}

func (h *serviceHandler) WithGroup(name string) slog.Handler {
	ops := make([]handlerOp, 0, len(h.ops)+1)
	ops = append(ops, h.ops...)
	ops = append(ops, handlerOp{group: name})
	return &serviceHandler{svc: h.svc, ops: ops}
}
