// Package log provides the indexer's leveled logging: a small global
// API backed by a zap.SugaredLogger, in the same ctx-pairs-as-fields
// style the teacher's geth-compat logging layer exposes.
package log

import (
	"fmt"
	"os"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger wraps a zap.SugaredLogger with the ctx-pairs calling
// convention (Info("msg", "key", value, ...)) used throughout this
// module instead of zap's own With(zap.String(...)) field builders.
type Logger struct {
	z *zap.SugaredLogger
}

// New builds a Logger writing JSON lines at level to w (os.Stderr if
// nil).
func New(level zapcore.Level, w zapcore.WriteSyncer) Logger {
	if w == nil {
		w = zapcore.AddSync(os.Stderr)
	}
	encoder := zap.NewProductionEncoderConfig()
	encoder.TimeKey = "ts"
	encoder.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoder), w, level)
	return Logger{z: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar()}
}

// NewRotating builds a Logger whose output rotates through path via
// lumberjack once it passes maxSizeMB.
func NewRotating(level zapcore.Level, path string, maxSizeMB, maxBackups, maxAgeDays int) Logger {
	writer := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
		Compress:   true,
	}
	return New(level, zapcore.AddSync(writer))
}

func (l Logger) With(ctx ...interface{}) Logger {
	return Logger{z: l.z.With(ctx...)}
}

func (l Logger) Debug(msg string, ctx ...interface{}) { l.z.Debugw(msg, ctx...) }
func (l Logger) Info(msg string, ctx ...interface{})  { l.z.Infow(msg, ctx...) }
func (l Logger) Warn(msg string, ctx ...interface{})  { l.z.Warnw(msg, ctx...) }
func (l Logger) Error(msg string, ctx ...interface{}) { l.z.Errorw(msg, ctx...) }
func (l Logger) Fatal(msg string, ctx ...interface{}) { l.z.Fatalw(msg, ctx...) }

func (l Logger) Sync() error { return l.z.Sync() }

// ParseLevel maps a config string ("debug", "info", "warn", "error") to
// a zapcore.Level.
func ParseLevel(s string) (zapcore.Level, error) {
	switch s {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return 0, fmt.Errorf("log: unknown level %q", s)
	}
}

var defaultLogger atomic.Value

func init() {
	defaultLogger.Store(New(zapcore.InfoLevel, nil))
}

// SetDefault replaces the logger the package-level functions write to.
func SetDefault(l Logger) { defaultLogger.Store(l) }

func current() Logger { return defaultLogger.Load().(Logger) }

func Debug(msg string, ctx ...interface{}) { current().Debug(msg, ctx...) }
func Info(msg string, ctx ...interface{})  { current().Info(msg, ctx...) }
func Warn(msg string, ctx ...interface{})  { current().Warn(msg, ctx...) }
func Error(msg string, ctx ...interface{}) { current().Error(msg, ctx...) }
func Fatal(msg string, ctx ...interface{}) { current().Fatal(msg, ctx...) }
