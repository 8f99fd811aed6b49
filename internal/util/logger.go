package util

import (
	"fmt"
	"log/slog"
)

// Logger wraps slog with printf style methods for code that formats its own
// messages.
type Logger struct {
	slogLogger *slog.Logger
}

// GetCompatLogger returns a printf style logger backed by the global slog logger.
func GetCompatLogger() *Logger {
	return &Logger{
		slogLogger: GetLogger(),
	}
}

// With returns a logger carrying the given attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slogLogger: l.slogLogger.With(args...)}
}

// Debugf logs at debug level
func (l *Logger) Debugf(format string, v ...any) {
	if IsVerbose() {
		l.slogLogger.Debug(fmt.Sprintf(format, v...))
	}
}

// Infof logs at info level
func (l *Logger) Infof(format string, v ...any) {
	l.slogLogger.Info(fmt.Sprintf(format, v...))
}

// Warnf logs at warn level
func (l *Logger) Warnf(format string, v ...any) {
	l.slogLogger.Warn(fmt.Sprintf(format, v...))
}

// Errorf logs at error level
func (l *Logger) Errorf(format string, v ...any) {
	l.slogLogger.Error(fmt.Sprintf(format, v...))
}
