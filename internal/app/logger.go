package app

import (
	"log/slog"
	"os"
)

// NewLogger builds the process logger. Production environments log JSON;
// everything else gets the readable text handler.
func NewLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{AddSource: true}
	if cfg != nil && (cfg.LogFormat == "json" || cfg.IsProduction()) {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts)).With(
			slog.String("service", "munim"),
		)
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
