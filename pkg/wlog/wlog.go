// Package wlog provides the structured logger construction used throughout
// wumpus. Every subsystem receives a *zap.SugaredLogger through its Config,
// never a bare stdlib logger.
package wlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production-style zap logger scoped to service, the same
// contract pkg/ignite/ignite.go expected of its (missing) pkg/logger
// dependency: a single constructor taking a service name and returning a
// ready-to-use *zap.SugaredLogger.
func New(service string) *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	logger, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		// Fall back to a no-op core rather than panic: logging must never be
		// the reason a storage operation fails.
		logger = zap.NewNop()
	}

	return logger.Sugar().With("service", service)
}

// NewNop returns a logger that discards everything, for tests that don't
// care about log output but still need to satisfy a Config.Logger field.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
