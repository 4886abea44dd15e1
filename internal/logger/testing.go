package logger

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// TestLogger creates a debug-level logger whose entries can be asserted on
func TestLogger() (*zap.Logger, *observer.ObservedLogs) {
	return TestLoggerAt(zap.DebugLevel)
}

// TestLoggerAt creates an observed logger that records entries at or above level
func TestLoggerAt(level zapcore.Level) (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return zap.New(core), logs
}

// TestContext creates a context carrying an observed test logger
func TestContext() (context.Context, *observer.ObservedLogs) {
	l, logs := TestLogger()
	return ContextWithLogger(context.Background(), l), logs
}

// NopContext creates a context with a no-op logger
func NopContext() context.Context {
	return ContextWithLogger(context.Background(), zap.NewNop())
}
