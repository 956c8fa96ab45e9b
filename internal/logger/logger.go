// Package logger provides the process-wide zap logger.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Log is the global logger instance
	Log *zap.Logger
	// Sugar is Log with printf-style helpers
	Sugar *zap.SugaredLogger

	mu          sync.RWMutex
	defaultOnce sync.Once
)

// Init builds the global logger. Production uses JSON output at info level,
// everything else a console encoder at debug level.
func Init(production bool) error {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	encoder := zapcore.NewConsoleEncoder(encoderConfig)
	level := zapcore.DebugLevel
	if production {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
		level = zapcore.InfoLevel
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)
	l := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))

	mu.Lock()
	Log = l
	Sugar = l.Sugar()
	mu.Unlock()

	return nil
}

// GetLogger returns a named child logger, initializing a development logger on first use.
// Safe for concurrent use.
func GetLogger(name string) *zap.SugaredLogger {
	defaultOnce.Do(func() {
		if current() == nil {
			_ = Init(false)
		}
	})
	return current().Named(name).Sugar()
}

func current() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return Log
}

// Sync flushes buffered log entries
func Sync() {
	if l := current(); l != nil {
		_ = l.Sync()
	}
}
