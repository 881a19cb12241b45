package jose

import (
	"context"

	"github.com/cybergodev/jose/internal/logger"
)

// Logger is the structured logger used by Processor and replay stores.
// Attributes naming secrets, keys or tokens are redacted.
type Logger = logger.Logger

// NewLogger builds a slog-backed Logger from cfg.
func NewLogger(cfg LogConfig) Logger {
	return logger.New(cfg)
}

// SetDefaultLogger replaces the logger used when none is configured.
func SetDefaultLogger(l Logger) {
	logger.SetDefault(l)
}

// ContextWithRequestID tags ctx with a request ID. Processor methods that
// take a context add it to their log records as request_id.
func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return logger.WithRequestID(ctx, requestID)
}
