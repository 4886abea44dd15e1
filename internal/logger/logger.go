package logger

import (
	"os"
	"path/filepath"

	config "github.com/inference-gateway/toolgate/config"
	zap "go.uber.org/zap"
	zapcore "go.uber.org/zap/zapcore"
)

var sugar = zap.NewNop().Sugar()

// Init initializes the global logger. Verbose or debug configuration lowers
// the level to debug; a configured logging dir redirects output to a file.
func Init(verbose bool, cfg *config.Config) {
	level := zapcore.WarnLevel
	if verbose || (cfg != nil && cfg.Logging.Debug) {
		level = zapcore.DebugLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var sink zapcore.WriteSyncer = zapcore.Lock(os.Stderr)
	if cfg != nil && cfg.Logging.Dir != "" {
		if err := os.MkdirAll(cfg.Logging.Dir, 0755); err == nil {
			file, err := os.OpenFile(filepath.Join(cfg.Logging.Dir, "toolgate.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
			if err == nil {
				sink = zapcore.AddSync(file)
			}
		}
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), sink, zap.NewAtomicLevelAt(level))
	l := zap.New(core, zap.AddCaller())

	zap.ReplaceGlobals(l)
	sugar = l.WithOptions(zap.AddCallerSkip(1)).Sugar()
}

// Close flushes any buffered log entries
func Close() {
	_ = sugar.Sync()
}

// Debug logs a debug message
func Debug(msg string, args ...any) {
	sugar.Debugw(msg, args...)
}

// Info logs an info message
func Info(msg string, args ...any) {
	sugar.Infow(msg, args...)
}

// Warn logs a warning message
func Warn(msg string, args ...any) {
	sugar.Warnw(msg, args...)
}

// Error logs an error message
func Error(msg string, args ...any) {
	sugar.Errorw(msg, args...)
}
