package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults for the log file
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 28
)

// Options configures the process logger
type Options struct {
	File       string    // log file path, empty disables the file sink
	Console    io.Writer // console sink, nil disables it
	Debug      bool
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// New builds a logger writing JSON records to a rotating file and text records to the console.
// The returned closer releases the log file and must be called when the run ends.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	var handlers []slog.Handler
	var closer io.Closer = nopCloser{}

	handlerOpts := &slog.HandlerOptions{Level: level(opts.Debug)}

	if opts.File != "" {
		// Create log directory if it doesn't exist
		if dir := filepath.Dir(opts.File); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
			}
		}

		// File handler with rotation
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    withDefault(opts.MaxSizeMB, DefaultMaxSizeMB),
			MaxBackups: withDefault(opts.MaxBackups, DefaultMaxBackups),
			MaxAge:     withDefault(opts.MaxAgeDays, DefaultMaxAgeDays),
			Compress:   opts.Compress,
		}
		handlers = append(handlers, slog.NewJSONHandler(file, handlerOpts))
		closer = file
	}

	if opts.Console != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.Console, handlerOpts))
	}

	switch len(handlers) {
	case 0:
		return slog.New(slog.NewTextHandler(io.Discard, handlerOpts)), closer, nil
	case 1:
		return slog.New(handlers[0]), closer, nil
	default:
		return slog.New(&MultiHandler{handlers: handlers}), closer, nil
	}
}

// MultiHandler writes to multiple handlers
type MultiHandler struct {
	handlers []slog.Handler
}

// Enabled returns true if any handler is enabled for the given level
func (h *MultiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes the record to all handlers
func (h *MultiHandler) Handle(ctx context.Context, r slog.Record) error {
	var lastErr error
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, r.Level) {
			if err := handler.Handle(ctx, r.Clone()); err != nil {
				lastErr = err
			}
		}
	}
	return lastErr
}

// WithAttrs returns a new handler with the given attributes
func (h *MultiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &MultiHandler{handlers: handlers}
}

// WithGroup returns a new handler with the given group
func (h *MultiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &MultiHandler{handlers: handlers}
}

func level(debug bool) slog.Level {
	if debug {
		return slog.LevelDebug
	}
	return slog.LevelInfo
}

func withDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
