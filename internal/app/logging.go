package app

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLogLevel parses a level name. Unknown names mean info.
func ParseLogLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// LoggerConfig configures the logger.
type LoggerConfig struct {
	// Level is the minimum level written.
	Level zapcore.Level
	// Development switches to a human-readable console encoding.
	Development bool
	// Color colors development level names.
	Color bool
	// Output is where logs are written. Defaults to os.Stderr.
	Output io.Writer
}

// DefaultLoggerConfig returns the default logger configuration.
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:  zapcore.InfoLevel,
		Output: os.Stderr,
	}
}

// NewLogger builds a zap logger. Production loggers write JSON; development
// loggers write console lines and include the caller.
func NewLogger(cfg LoggerConfig) *zap.Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	var (
		encoder zapcore.Encoder
		opts    []zap.Option
	)
	if cfg.Development {
		ec := zap.NewDevelopmentEncoderConfig()
		if cfg.Color {
			ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
		}
		encoder = zapcore.NewConsoleEncoder(ec)
		opts = append(opts, zap.AddCaller(), zap.Development())
	} else {
		ec := zap.NewProductionEncoderConfig()
		ec.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(ec)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(cfg.Output), zap.NewAtomicLevelAt(cfg.Level))
	return zap.New(core, opts...).Named("numbertheorist")
}
