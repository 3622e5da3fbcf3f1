package logger

import (
	"context"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

type Handler struct {
	slog.Handler
}

// NewHandler creates a JSON slog handler writing to stdout.
// The log level is taken from the "log.level" config key.
func NewHandler(opts *slog.HandlerOptions) *Handler {
	if opts == nil {
		opts = &slog.HandlerOptions{
			Level: parseLevel(viper.GetString("log.level")),
		}
	}

	return &Handler{
		Handler: slog.NewJSONHandler(os.Stdout, opts),
	}
}

func (h *Handler) Handle(ctx context.Context, r slog.Record) error {
	if requestID, ok := ctx.Value(requestIDKey{}).(string); ok {
		r.AddAttrs(slog.String("request_id", requestID))
	}

	return h.Handler.Handle(ctx, r)
}

func parseLevel(lvl string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(lvl)) {
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
