// Package logger is a thin zap wrapper shared by every component.
package logger

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	Fatal(msg string, fields ...zap.Field)

	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	Fatalf(template string, args ...interface{})

	// With returns a child logger that adds fields to every entry.
	With(fields ...zap.Field) Logger
	// Named returns a child logger for one component, ex: "dispatch".
	Named(component string) Logger

	Sync() error
}

type loggerImpl struct {
	base    *zap.Logger
	sugared *zap.SugaredLogger
}

// New builds a production (JSON) or development (colored) logger. Every
// entry carries service=animelist.
func New(level string, pretty bool) Logger {
	var cfg zap.Config
	if pretty {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		// turn logs are per chat, sampling would hide whole conversations
		cfg.Sampling = nil
	}

	if lvl := parseLevel(level); lvl != nil {
		cfg.Level = zap.NewAtomicLevelAt(*lvl)
	}

	base, err := cfg.Build(
		zap.AddStacktrace(zapcore.FatalLevel), // Only add stack traces for Fatal
		zap.Fields(zap.String("service", "animelist")),
	)
	if err != nil {
		panic(err)
	}

	return Wrap(base)
}

// Wrap adapts an existing zap logger, ex: one built on zaptest/observer.
func Wrap(base *zap.Logger) Logger {
	return &loggerImpl{
		base:    base,
		sugared: base.Sugar(),
	}
}

// Nop returns a logger that discards everything.
func Nop() Logger {
	return Wrap(zap.NewNop())
}

func parseLevel(lvl string) *zapcore.Level {
	if lvl == "" {
		return nil
	}
	l, err := zapcore.ParseLevel(lvl)
	if err != nil || l < zapcore.DebugLevel || l > zapcore.ErrorLevel {
		return nil
	}
	return &l
}

func (l *loggerImpl) Debug(msg string, fields ...zap.Field) { l.base.Debug(msg, fields...) }
func (l *loggerImpl) Info(msg string, fields ...zap.Field)  { l.base.Info(msg, fields...) }
func (l *loggerImpl) Warn(msg string, fields ...zap.Field)  { l.base.Warn(msg, fields...) }
func (l *loggerImpl) Error(msg string, fields ...zap.Field) { l.base.Error(msg, fields...) }
func (l *loggerImpl) Fatal(msg string, fields ...zap.Field) { l.base.Fatal(msg, fields...) }

func (l *loggerImpl) Debugf(t string, args ...interface{}) { l.sugared.Debugf(t, args...) }
func (l *loggerImpl) Infof(t string, args ...interface{})  { l.sugared.Infof(t, args...) }
func (l *loggerImpl) Warnf(t string, args ...interface{})  { l.sugared.Warnf(t, args...) }
func (l *loggerImpl) Errorf(t string, args ...interface{}) { l.sugared.Errorf(t, args...) }
func (l *loggerImpl) Fatalf(t string, args ...interface{}) { l.sugared.Fatalf(t, args...) }

func (l *loggerImpl) With(fields ...zap.Field) Logger {
	return Wrap(l.base.With(fields...))
}

func (l *loggerImpl) Named(component string) Logger {
	return Wrap(l.base.Named(component))
}

func (l *loggerImpl) Sync() error { return l.base.Sync() }

// Field constructors, so callers need not import zap.
func String(key, val string) zap.Field                 { return zap.String(key, val) }
func Int(key string, val int) zap.Field                { return zap.Int(key, val) }
func Int64(key string, val int64) zap.Field            { return zap.Int64(key, val) }
func Bool(key string, val bool) zap.Field              { return zap.Bool(key, val) }
func Duration(key string, val time.Duration) zap.Field { return zap.Duration(key, val) }
func Error(err error) zap.Field                        { return zap.Error(err) }
func Any(key string, val interface{}) zap.Field        { return zap.Any(key, val) }

// ChatID tags an entry with the conversation it belongs to.
func ChatID(id int64) zap.Field { return zap.Int64("chat_id", id) }

// UpdateID tags an entry with the Telegram update that caused it.
func UpdateID(id int) zap.Field { return zap.Int("update_id", id) }

// Command tags an entry with the routed command or button name.
func Command(name string) zap.Field { return zap.String("command", name) }
