// Package zapadapter adapts go.uber.org/zap to the ratekeeper.Logger
// interface.
package zapadapter

import (
	"go.uber.org/zap"
)

// ZapLogger implements ratekeeper.Logger using a zap.SugaredLogger
// internally.
type ZapLogger struct {
	logger *zap.SugaredLogger
}

// New creates a ZapLogger from a zap.Logger. If nil is provided, it uses
// zap.NewNop(), which discards all messages.
//
// Example:
//
//	logger, _ := zap.NewProduction()
//	svc := ratekeeper.New(source, ratekeeper.WithServiceLogger(zapadapter.New(logger)))
func New(l *zap.Logger) *ZapLogger {
	if l == nil {
		l = zap.NewNop()
	}
	return &ZapLogger{logger: l.Sugar()}
}

// Debugf logs a debug-level message with formatting.
func (z *ZapLogger) Debugf(format string, args ...interface{}) {
	z.logger.Debugf(format, args...)
}

// Errorf logs an error-level message with formatting.
func (z *ZapLogger) Errorf(format string, args ...interface{}) {
	z.logger.Errorf(format, args...)
}
