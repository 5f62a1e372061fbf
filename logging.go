package gateway

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide *slog.Logger from Config: JSON output
// when cfg.JSONLogs is set (suited to log-shipping pipelines), otherwise
// human-readable text; LevelDebug when cfg.Debug is set, LevelInfo
// otherwise.
func NewLogger(cfg Config) *slog.Logger {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.JSONLogs {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}
