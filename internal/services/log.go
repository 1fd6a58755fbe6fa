package services

import (
	"context"

	"go.uber.org/zap"

	"lumenai/internal/logger"
)

// serviceLog names a service's log entries.
type serviceLog string

// For returns the request logger carried by ctx, named after the service.
// Outside a request it falls back to the global logger.
func (l serviceLog) For(ctx context.Context) *zap.Logger {
	return logger.FromContext(ctx).Named(string(l))
}
