package logger

import (
	"fmt"

	"github.com/Leopold1975/microblog/internal/pkg/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Debugf(template string, args ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	With(keysAndValues ...interface{}) Logger
}

type ZapLogger struct {
	l *zap.SugaredLogger
}

func New(cfg config.Logger) (ZapLogger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return ZapLogger{}, fmt.Errorf("parse level error: %w", err)
	}

	zcfg := zap.NewProductionConfig()
	zcfg.Level = zap.NewAtomicLevelAt(level)
	zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if len(cfg.Output) != 0 {
		zcfg.OutputPaths = cfg.Output
	}

	if len(cfg.ErrOutput) != 0 {
		zcfg.ErrorOutputPaths = cfg.ErrOutput
	}

	l, err := zcfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		return ZapLogger{}, fmt.Errorf("build zap logger error: %w", err)
	}

	return ZapLogger{l: l.Sugar()}, nil
}

// NewNop returns a logger that discards everything. Used in tests.
func NewNop() ZapLogger {
	return ZapLogger{l: zap.NewNop().Sugar()}
}

func (zl ZapLogger) Debugf(template string, args ...interface{}) {
	zl.l.Debugf(template, args...)
}

func (zl ZapLogger) Info(args ...interface{}) {
	zl.l.Info(args...)
}

func (zl ZapLogger) Infof(template string, args ...interface{}) {
	zl.l.Infof(template, args...)
}

func (zl ZapLogger) Warnf(template string, args ...interface{}) {
	zl.l.Warnf(template, args...)
}

func (zl ZapLogger) Error(args ...interface{}) {
	zl.l.Error(args...)
}

func (zl ZapLogger) Errorf(template string, args ...interface{}) {
	zl.l.Errorf(template, args...)
}

func (zl ZapLogger) With(keysAndValues ...interface{}) Logger {
	return ZapLogger{l: zl.l.With(keysAndValues...)}
}

func (zl ZapLogger) Sync() error {
	return zl.l.Sync() //nolint:wrapcheck
}
