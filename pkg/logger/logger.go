package logger

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config contains logger configuration
type Config struct {
	Level  string // "debug", "info", "warn", or "error"
	Format string // "json" or "console"
}

// Field is a structured log field
type Field = zap.Field

// Logger wraps a zap logger
type Logger struct {
	zap *zap.Logger
}

// New creates a new logger with the given configuration
func New(cfg Config) (*Logger, error) {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info", "":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("unknown log level: %s", cfg.Level)
	}

	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	switch cfg.Format {
	case "console":
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case "json", "":
		zapCfg.Encoding = "json"
	default:
		return nil, fmt.Errorf("unknown log format: %s", cfg.Format)
	}

	z, err := zapCfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	return &Logger{zap: z}, nil
}

// NewNop returns a logger that discards all output, for tests
func NewNop() *Logger {
	return &Logger{zap: zap.NewNop()}
}

// Named returns a logger with the given name appended to its name path
func (l *Logger) Named(name string) *Logger {
	return &Logger{zap: l.zap.Named(name)}
}

// With returns a logger with the given fields attached to every entry
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{zap: l.zap.With(fields...)}
}

// Sync flushes any buffered log entries
func (l *Logger) Sync() error {
	return l.zap.Sync()
}

func (l *Logger) Debug(msg string, fields ...Field) { l.zap.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.zap.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.zap.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.zap.Error(msg, fields...) }

// Field constructors

func String(key, value string) Field             { return zap.String(key, value) }
func Int(key string, value int) Field            { return zap.Int(key, value) }
func Int64(key string, value int64) Field        { return zap.Int64(key, value) }
func Float(key string, value float64) Field      { return zap.Float64(key, value) }
func Bool(key string, value bool) Field          { return zap.Bool(key, value) }
func Duration(key string, d time.Duration) Field { return zap.Duration(key, d) }
func Time(key string, t time.Time) Field         { return zap.Time(key, t) }
func Any(key string, value interface{}) Field    { return zap.Any(key, value) }
func Error(err error) Field                      { return zap.Error(err) }
