package observability

import (
	"io"
	"log/slog"
	"os"

	"github.com/fairyhunter13/api-telemetry/internal/config"
)

// SetupLogger configures a JSON slog logger on stdout with service fields.
func SetupLogger(cfg config.Config) *slog.Logger {
	return NewLogger(cfg, os.Stdout)
}

// NewLogger is SetupLogger with an explicit destination.
func NewLogger(cfg config.Config, out io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{}
	if cfg.IsDev() {
		opts.Level = slog.LevelDebug
	}
	h := slog.NewJSONHandler(out, opts)
	return slog.New(h).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("version", cfg.OTELServiceVersion),
		slog.String("env", cfg.AppEnv),
	)
}
