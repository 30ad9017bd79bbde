package observability

import (
	"log/slog"
	"os"

	"github.com/jaketajohnson/SnowTelemetry/internal/config"
)

// NewLogger builds the process-wide structured logger from config:
// JSON or text handler, level parsed leniently with info as fallback.
func NewLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.LogFormat == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}
