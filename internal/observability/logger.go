package observability

import (
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/couchcryptid/crime-score-map/internal/config"
)

// NewLogger builds a slog.Logger from LOG_LEVEL and LOG_FORMAT ("json" or
// "text"), writing to w. Unknown levels fall back to info.
func NewLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}

	var h slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// WithRun tags every record of one command run with the command name and a
// fresh run ID.
func WithRun(logger *slog.Logger, command string) *slog.Logger {
	return logger.With("command", command, "run_id", uuid.NewString())
}

func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
