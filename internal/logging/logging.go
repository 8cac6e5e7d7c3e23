package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Options configures New. Out defaults to os.Stderr.
type Options struct {
	Level string
	File  string
	Out   io.Writer
}

// New creates a JSON *slog.Logger writing to Out and, when File is set, also
// appending to that file. It becomes the slog default so package-level slog
// calls (storage backends) share it. Callers must defer the returned cleanup.
func New(opts Options) (*slog.Logger, func(), error) {
	out := opts.Out
	if out == nil {
		out = os.Stderr
	}
	writers := []io.Writer{out}
	cleanup := func() {}

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0600)
		if err != nil {
			return nil, nil, err
		}
		writers = append(writers, f)
		cleanup = func() { _ = f.Close() }
	}

	handler := slog.NewJSONHandler(io.MultiWriter(writers...), &slog.HandlerOptions{Level: ParseLevel(opts.Level)})
	logger := slog.New(handler).With("app", "photoshelf")
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

// ParseLevel maps a LOG_LEVEL value to a slog level, defaulting to info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
