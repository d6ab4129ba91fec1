// Package logging provides the structured logger used across the storefront service.
package logging

import (
	"os"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultLogLevel = "info"

// Fields carries structured key/value pairs attached to a log entry.
type Fields map[string]interface{}

// LoggerV2 is a named structured logger.
type LoggerV2 struct {
	name string
	base *zap.Logger
}

var (
	rootOnce sync.Once
	root     *zap.Logger
)

// Root returns the process-wide zap logger, building it on first use.
func Root() *zap.Logger {
	rootOnce.Do(func() {
		logger, err := newZap()
		if err != nil {
			logger = zap.NewNop()
		}
		root = logger
	})
	return root
}

// SetRoot replaces the process-wide logger. Tests use it to capture output.
func SetRoot(logger *zap.Logger) {
	rootOnce.Do(func() {})
	root = logger
}

func newZap() (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(os.Getenv("LOG_LEVEL"))))); err != nil {
		_ = level.UnmarshalText([]byte(defaultLogLevel))
	}

	encoderCfg := zapcore.EncoderConfig{
		MessageKey:    "message",
		TimeKey:       "timestamp",
		LevelKey:      "severity",
		NameKey:       "logger",
		EncodeTime:    zapcore.RFC3339NanoTimeEncoder,
		EncodeLevel:   zapcore.CapitalLevelEncoder,
		EncodeName:    zapcore.FullNameEncoder,
		CallerKey:     "caller",
		EncodeCaller:  zapcore.ShortCallerEncoder,
		StacktraceKey: "stacktrace",
	}

	cfg := zap.Config{
		Level:             level,
		Encoding:          "json",
		EncoderConfig:     encoderCfg,
		OutputPaths:       []string{"stdout"},
		ErrorOutputPaths:  []string{"stderr"},
		DisableStacktrace: true,
	}

	return cfg.Build(zap.AddCallerSkip(1))
}

// NewLoggerV2 creates a logger named after the component that owns it.
func NewLoggerV2(name string) *LoggerV2 {
	return &LoggerV2{name: name, base: Root().Named(name)}
}

// NewWithZap wraps an existing zap logger.
func NewWithZap(name string, logger *zap.Logger) *LoggerV2 {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggerV2{name: name, base: logger.Named(name)}
}

// Name returns the component name.
func (l *LoggerV2) Name() string {
	return l.name
}

// Zap exposes the underlying zap logger.
func (l *LoggerV2) Zap() *zap.Logger {
	return l.base
}

// With returns a child logger that always carries fields.
func (l *LoggerV2) With(fields Fields) *LoggerV2 {
	return &LoggerV2{name: l.name, base: l.base.With(toZap(fields)...)}
}

func (l *LoggerV2) Debug(msg string, fields ...Fields) {
	l.base.Debug(msg, merge(fields)...)
}

func (l *LoggerV2) Info(msg string, fields ...Fields) {
	l.base.Info(msg, merge(fields)...)
}

func (l *LoggerV2) Warn(msg string, fields ...Fields) {
	l.base.Warn(msg, merge(fields)...)
}

func (l *LoggerV2) Error(msg string, fields ...Fields) {
	l.base.Error(msg, merge(fields)...)
}

// Fatal logs and exits the process.
func (l *LoggerV2) Fatal(msg string, fields ...Fields) {
	l.base.Fatal(msg, merge(fields)...)
}

// Sync flushes buffered entries.
func (l *LoggerV2) Sync() error {
	return l.base.Sync()
}

// Info logs on the root logger.
func Info(msg string, fields ...Fields) {
	Root().Info(msg, merge(fields)...)
}

// Infof logs a printf-style message on the root logger.
func Infof(format string, args ...interface{}) {
	Root().Sugar().Infof(format, args...)
}

func merge(fields []Fields) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	out := make([]zap.Field, 0, len(fields[0]))
	for _, f := range fields {
		out = append(out, toZap(f)...)
	}
	return out
}

func toZap(fields Fields) []zap.Field {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}
