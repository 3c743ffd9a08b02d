package logger

import (
	"io"
	"os"

	"github.com/reach-hq/reach-payments/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging surface the runtime depends on.
type Logger interface {
	InfoObj(msg, key string, obj any)
	DebugObj(msg, key string, obj any)
	WarnObj(msg, key string, obj any)
	ErrorObj(msg, key string, obj any)
}

// Zap implements Logger on top of a zap.Logger.
type Zap struct {
	l *zap.Logger
}

// Init initializes a zap logger using settings from config. Output goes to
// stderr so command results on stdout stay machine readable.
func Init(cfg *config.Config) (*Zap, error) {
	return newZap(cfg, zapcore.Lock(os.Stderr)), nil
}

func newZap(cfg *config.Config, out zapcore.WriteSyncer) *Zap {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "ts"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		out,
		parseLevel(cfg.LogLevel),
	)

	l := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("app", cfg.AppName), zap.String("env", cfg.Env))
	return &Zap{l: l}
}

// New builds a Logger writing JSON lines to w, mainly for tests.
func New(cfg *config.Config, w io.Writer) *Zap {
	return newZap(cfg, zapcore.AddSync(w))
}

func parseLevel(lvl string) zapcore.Level {
	switch lvl {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sync flushes buffered log entries.
func (z *Zap) Sync() error {
	if z == nil || z.l == nil {
		return nil
	}
	return z.l.Sync()
}

func (z *Zap) InfoObj(msg, key string, obj any)  { z.l.Info(msg, zap.Any(key, obj)) }
func (z *Zap) DebugObj(msg, key string, obj any) { z.l.Debug(msg, zap.Any(key, obj)) }
func (z *Zap) WarnObj(msg, key string, obj any)  { z.l.Warn(msg, zap.Any(key, obj)) }
func (z *Zap) ErrorObj(msg, key string, obj any) { z.l.Error(msg, zap.Any(key, obj)) }

// NopLogger discards everything.
type NopLogger struct{}

func (*NopLogger) InfoObj(string, string, any)  {}
func (*NopLogger) DebugObj(string, string, any) {}
func (*NopLogger) WarnObj(string, string, any)  {}
func (*NopLogger) ErrorObj(string, string, any) {}
