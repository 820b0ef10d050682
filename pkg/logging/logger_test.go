package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		enable slog.Level
	}{
		{"debug level", "debug", slog.LevelDebug},
		{"warn level", "WARN", slog.LevelWarn},
		{"error level", "error", slog.LevelError},
		{"unknown falls back to info", "verbose", slog.LevelInfo},
		{"default info", "", slog.LevelInfo},
	}

	ctx := context.Background()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.level)
			if !logger.Enabled(ctx, tt.enable) {
				t.Fatalf("expected level %s to be enabled", tt.enable)
			}
		})
	}
}

func TestDefaultLogger(t *testing.T) {
	logger := Default()
	if logger.Logger == nil {
		t.Fatal("Default() returned Logger with nil slog.Logger")
	}

	ctx := context.Background()
	if !logger.Enabled(ctx, slog.LevelInfo) {
		t.Error("Default() should enable info level")
	}
	if logger.Enabled(ctx, slog.LevelDebug) {
		t.Error("Default() should not enable debug level")
	}
}

func TestWith(t *testing.T) {
	base := Default()
	child := base.With("clinic_id", "clinic-1")
	if child == nil || child.Logger == nil {
		t.Fatal("With() returned nil logger")
	}
	if child == base {
		t.Error("With() should return a new logger instance")
	}
}
