// Package stdlogadapter adapts the standard library log package to the
// ratekeeper.Logger interface.
package stdlogadapter

import (
	"log"
)

// StdLogger implements ratekeeper.Logger using the Go standard library log.
type StdLogger struct {
	logger *log.Logger
}

// New creates a StdLogger. If nil is passed, the default logger is used.
func New(l *log.Logger) *StdLogger {
	if l == nil {
		l = log.Default()
	}
	return &StdLogger{logger: l}
}

// Debugf logs a debug-level message (Printf with a level prefix).
func (s *StdLogger) Debugf(format string, args ...interface{}) {
	s.logger.Printf("[DEBUG] "+format, args...)
}

// Errorf logs an error-level message.
func (s *StdLogger) Errorf(format string, args ...interface{}) {
	s.logger.Printf("[ERROR] "+format, args...)
}
