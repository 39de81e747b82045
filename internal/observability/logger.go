package observability

import (
	"io"
	"log/slog"
	"os"

	"github.com/couchcryptid/wetland-gis-tools/internal/config"
)

// NewLogger builds the tool logger on stderr from the configured level and format.
// verbose forces debug output.
func NewLogger(cfg *config.Config, verbose bool) *slog.Logger {
	return newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat, verbose)
}

func newLogger(w io.Writer, level, format string, verbose bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if verbose {
		opts.Level = slog.LevelDebug
	}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
