// Package logger provides a structured, levelled logger built on log/slog.
//
// The key extension over plain slog is WithCtx: it returns the logger the
// HTTP middleware stored for the current request, already tagged with the
// request ID, so every log line from a handler is correlated:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("product served", "id", id)
//	// → time=... level=INFO msg="product served" request_id=a1b2c3d4 id=1
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/solestore/solestore/config"
)

var L *slog.Logger

func init() {
	L = New(os.Stdout, config.AppEnv(), config.LogLevel())
	slog.SetDefault(L)
}

// New builds a logger writing to w. Production environments get JSON output
// for log aggregators, everything else the human-readable text handler.
// An empty level picks info for production and debug otherwise.
func New(w io.Writer, env, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(env, level)}

	switch env {
	case "production", "prod":
		return slog.New(slog.NewJSONHandler(w, opts))
	default:
		return slog.New(slog.NewTextHandler(w, opts))
	}
}

func parseLevel(env, level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	if env == "production" || env == "prod" {
		return slog.LevelInfo
	}
	return slog.LevelDebug
}

// Discard returns a logger that drops everything. Handy in tests.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// ─────────────────────────────────────────────
// Context-aware logger
// ─────────────────────────────────────────────

type ctxKey struct{}

// WithCtx returns the *slog.Logger stored in ctx by the Logger middleware.
// If none is present the base logger is returned.
func WithCtx(ctx context.Context) *slog.Logger {
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores a *slog.Logger (pre-tagged with request_id) into ctx.
// Called by the Logger middleware; application code rarely needs it.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// ─────────────────────────────────────────────
// Short-hand helpers (use base logger)
// ─────────────────────────────────────────────

// Debug logs at DEBUG level.
func Debug(msg string, args ...any) { L.Debug(msg, args...) }

// Info logs at INFO level.
func Info(msg string, args ...any) { L.Info(msg, args...) }

// Warn logs at WARN level.
func Warn(msg string, args ...any) { L.Warn(msg, args...) }

// Error logs at ERROR level.
func Error(msg string, args ...any) { L.Error(msg, args...) }
