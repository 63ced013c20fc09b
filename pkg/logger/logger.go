// Package logger provides a structured, levelled logger built on log/slog.
//
// WithCtx returns the logger stored by the request middleware, so every line
// emitted while serving a request carries its request_id:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("ingest finished", "added", 3)
//	// → time=... level=INFO msg="ingest finished" request_id=a1b2c3d4 added=3
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/shashiranjanraj/gpucatalog/config"
)

var L *slog.Logger

func init() {
	L = New(config.AppEnv(), config.LogFile())
	slog.SetDefault(L)
}

// New builds a logger for env. Production gets JSON lines, everything else
// human-readable text. A non-empty logFile tees output into a rotated file.
func New(env, logFile string) *slog.Logger {
	var out io.Writer = os.Stdout
	if logFile != "" {
		out = io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    64, // MB
			MaxBackups: 7,
			MaxAge:     7, // days
		})
	}

	switch env {
	case "production", "prod":
		return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	default:
		return slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type ctxKey struct{}

// WithCtx returns the per-request logger stored in ctx, or the base logger.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
// Called by the Logger middleware.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
