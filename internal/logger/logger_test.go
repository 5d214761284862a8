package logger

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// errorHandler always fails to handle records
type errorHandler struct{}

func (e *errorHandler) Enabled(ctx context.Context, level slog.Level) bool { return true }
func (e *errorHandler) Handle(ctx context.Context, r slog.Record) error {
	return fmt.Errorf("fake error")
}
func (e *errorHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return e }
func (e *errorHandler) WithGroup(name string) slog.Handler       { return e }

// disabledHandler is never enabled
type disabledHandler struct{}

func (d *disabledHandler) Enabled(ctx context.Context, level slog.Level) bool { return false }
func (d *disabledHandler) Handle(ctx context.Context, r slog.Record) error    { return nil }
func (d *disabledHandler) WithAttrs(attrs []slog.Attr) slog.Handler           { return d }
func (d *disabledHandler) WithGroup(name string) slog.Handler                 { return d }

func TestLevel(t *testing.T) {
	if level(true) != slog.LevelDebug {
		t.Errorf("Expected debug level when debug is enabled, got %v", level(true))
	}
	if level(false) != slog.LevelInfo {
		t.Errorf("Expected info level by default, got %v", level(false))
	}
}

func TestWithDefault(t *testing.T) {
	tests := []struct {
		value, def, expected int
	}{
		{0, 10, 10},
		{-1, 10, 10},
		{5, 10, 5},
	}
	for _, tt := range tests {
		if got := withDefault(tt.value, tt.def); got != tt.expected {
			t.Errorf("withDefault(%d, %d): expected %d, got %d", tt.value, tt.def, tt.expected, got)
		}
	}
}

func TestNew_FileAndConsole(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "run.log")
	var console bytes.Buffer

	log, closer, err := New(Options{File: path, Console: &console})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if _, ok := log.Handler().(*MultiHandler); !ok {
		t.Errorf("Expected MultiHandler for file and console, got %T", log.Handler())
	}

	log.Info("Updated repository", "repository", "acme/widgets")
	log.Debug("hidden at info level")
	if err := closer.Close(); err != nil {
		t.Fatalf("Expected no error closing log file, got: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected log file to be created: %v", err)
	}
	if !strings.Contains(string(data), `"repository":"acme/widgets"`) {
		t.Errorf("Expected JSON record in log file, got: %s", data)
	}
	if !strings.Contains(console.String(), "repository=acme/widgets") {
		t.Errorf("Expected text record on console, got: %s", console.String())
	}
	if strings.Contains(console.String(), "hidden") {
		t.Error("Expected debug record to be filtered at info level")
	}
}

func TestNew_DebugConsoleOnly(t *testing.T) {
	var console bytes.Buffer

	log, closer, err := New(Options{Console: &console, Debug: true})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer closer.Close()

	if _, ok := log.Handler().(*MultiHandler); ok {
		t.Error("Expected a single handler when only the console is enabled")
	}

	log.Debug("query response", "issues", 3)
	if !strings.Contains(console.String(), "query response") {
		t.Errorf("Expected debug record on console, got: %s", console.String())
	}
}

func TestNew_NoSinks(t *testing.T) {
	log, closer, err := New(Options{})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	defer closer.Close()

	// Should not panic
	log.Info("discarded")
}

func TestNew_InvalidLogDirectory(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatalf("Failed to create blocker file: %v", err)
	}

	_, _, err := New(Options{File: filepath.Join(blocker, "sub", "run.log")})
	if err == nil {
		t.Error("Expected error when the log directory cannot be created")
	}
}

func TestMultiHandler_Enabled(t *testing.T) {
	fileHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	consoleHandler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})

	multiHandler := &MultiHandler{
		handlers: []slog.Handler{fileHandler, consoleHandler},
	}

	ctx := context.Background()
	if !multiHandler.Enabled(ctx, slog.LevelInfo) {
		t.Error("Expected handler to be enabled for Info level")
	}
	if !multiHandler.Enabled(ctx, slog.LevelDebug) {
		t.Error("Expected handler to be enabled for Debug level")
	}
	if !multiHandler.Enabled(ctx, slog.LevelError) {
		t.Error("Expected handler to be enabled for Error level")
	}
}

func TestMultiHandler_Enabled_AllDisabled(t *testing.T) {
	multi := &MultiHandler{
		handlers: []slog.Handler{&disabledHandler{}, &disabledHandler{}},
	}

	ctx := context.Background()
	if multi.Enabled(ctx, slog.LevelInfo) {
		t.Error("Expected handler to be disabled when all handlers are disabled")
	}
	if multi.Enabled(ctx, slog.LevelError) {
		t.Error("Expected handler to be disabled when all handlers are disabled")
	}
}

func TestMultiHandler_HandleFansOut(t *testing.T) {
	var a, b bytes.Buffer
	multi := &MultiHandler{handlers: []slog.Handler{
		slog.NewTextHandler(&a, nil),
		slog.NewTextHandler(&b, nil),
	}}

	slog.New(multi).Info("fan out", "k", "v")

	if !strings.Contains(a.String(), "fan out") || !strings.Contains(b.String(), "fan out") {
		t.Errorf("Expected both handlers to receive the record, got %q and %q", a.String(), b.String())
	}
}

func TestMultiHandler_HandleError(t *testing.T) {
	multi := &MultiHandler{
		handlers: []slog.Handler{&errorHandler{}, &errorHandler{}},
	}
	record := slog.NewRecord(time.Now(), slog.LevelInfo, "test", 0)
	if err := multi.Handle(context.Background(), record); err == nil {
		t.Error("Expected error from failing handler")
	}
}

func TestMultiHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	multi := &MultiHandler{handlers: []slog.Handler{slog.NewTextHandler(&buf, nil)}}

	h1 := multi.WithAttrs([]slog.Attr{slog.String("repository", "acme/widgets")})
	h2 := multi.WithGroup("run")
	if _, ok := h1.(*MultiHandler); !ok {
		t.Error("WithAttrs should return a MultiHandler")
	}
	if _, ok := h2.(*MultiHandler); !ok {
		t.Error("WithGroup should return a MultiHandler")
	}
	if h1 == slog.Handler(multi) {
		t.Error("Expected WithAttrs to return a new handler instance")
	}

	slog.New(h1).Info("with attrs")
	if !strings.Contains(buf.String(), "repository=acme/widgets") {
		t.Errorf("Expected attribute to be carried, got: %s", buf.String())
	}
}
