package app

import (
	"io"
	"log/slog"
)

// newLogger builds the app-scoped slog.Logger writing to outW. It never
// touches the global logger; every App owns an isolated instance. An
// unparseable level falls back to info.
func newLogger(levelStr, formatStr string, outW io.Writer) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if formatStr == "json" {
		return slog.New(slog.NewJSONHandler(outW, opts))
	}
	return slog.New(slog.NewTextHandler(outW, opts))
}
