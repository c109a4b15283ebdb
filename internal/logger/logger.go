// Package logger initializes the process-wide zap logger.
package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the shared application logger. Init must be called before use.
var Logger *zap.Logger = zap.NewNop()

// Init configures the global logger with the given level ("debug", "info",
// "warn", "error").
func Init(level string) error {
	var zapLevel zapcore.Level
	if err := zapLevel.Set(level); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	Logger = l
	return nil
}

// Sync flushes buffered log entries. Call on shutdown.
func Sync() {
	_ = Logger.Sync()
}
