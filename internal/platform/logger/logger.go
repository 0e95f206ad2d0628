package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap so the rest of the service does not depend on the logging
// library directly.
type Logger struct {
	*zap.Logger
}

// New builds a logger from the given level ("debug", "info", "warn", "error")
// and format ("json" or "console"). Invalid levels fall back to info.
func New(level, format string) *Logger {
	var cfg zap.Config
	if level == "debug" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		fmt.Fprintf(os.Stderr, "invalid LOG_LEVEL %q, defaulting to info: %v\n", level, err)
		cfg.Level.SetLevel(zapcore.InfoLevel)
	}

	if strings.EqualFold(format, "console") || strings.EqualFold(format, "text") {
		cfg.Encoding = "console"
	} else {
		cfg.Encoding = "json"
	}

	l, err := cfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger, falling back to production defaults: %v\n", err)
		l, _ = zap.NewProduction()
	}
	return &Logger{Logger: l}
}

// Named adds a path segment to the logger's name for contextual logging.
func (l *Logger) Named(name string) *Logger {
	return &Logger{Logger: l.Logger.Named(name)}
}

// With adds structured context to the logger.
func (l *Logger) With(fields ...zap.Field) *Logger {
	return &Logger{Logger: l.Logger.With(fields...)}
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() *Logger {
	return &Logger{Logger: zap.NewNop()}
}
