package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging surface injected into every component.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Fatal(msg string, fields ...zap.Field)
	Sync() error
}

type Config struct {
	IsDevelopment     bool
	Encoding          string // "json" or "console"
	Level             string
	DisableCaller     bool
	DisableStacktrace bool
}

type zapLogger struct {
	base *zap.Logger
}

func New(cfg *Config) Logger {
	var zc zap.Config
	if cfg.IsDevelopment {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	if cfg.Encoding != "" {
		zc.Encoding = cfg.Encoding
	}
	if lvl, err := zapcore.ParseLevel(cfg.Level); err == nil {
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}
	zc.DisableCaller = cfg.DisableCaller
	zc.DisableStacktrace = cfg.DisableStacktrace

	base, err := zc.Build(zap.AddCallerSkip(1))
	if err != nil {
		base = zap.NewNop()
	}
	return &zapLogger{base: base}
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() Logger {
	return &zapLogger{base: zap.NewNop()}
}

func (l *zapLogger) Debug(msg string, fields ...zap.Field) { l.base.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...zap.Field)  { l.base.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...zap.Field)  { l.base.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...zap.Field) { l.base.Error(msg, fields...) }
func (l *zapLogger) Fatal(msg string, fields ...zap.Field) { l.base.Fatal(msg, fields...) }
func (l *zapLogger) Sync() error                           { return l.base.Sync() }
