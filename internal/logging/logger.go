// Package logging provides structured logging configuration using log/slog.
//
// Loggers pick up two identifiers from the context: the chi request ID set
// by the RequestID middleware, and the scan ID assigned to each dashboard
// scan. Every log line for one scan can be correlated through either.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
)

type ctxKey int

const scanIDKey ctxKey = iota

// Setup configures the global slog logger based on level and format,
// writing to stdout.
//
// Level values: "debug", "info", "warn", "error" (default: "info")
// Format values: "text", "json" (default: "text")
func Setup(level, format string) {
	slog.SetDefault(New(os.Stdout, level, format))
}

// New builds a logger writing to w. The CLI uses it to keep stdout free
// for reports.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}

	var handler slog.Handler
	if strings.ToLower(format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithScanID stores the scan ID on ctx for FromContext.
func WithScanID(ctx context.Context, scanID string) context.Context {
	return context.WithValue(ctx, scanIDKey, scanID)
}

// ScanID returns the scan ID stored on ctx, if any.
func ScanID(ctx context.Context) string {
	id, _ := ctx.Value(scanIDKey).(string)
	return id
}

// FromContext returns the default logger enriched with request_id and
// scan_id when ctx carries them.
//
// Usage:
//
//	func handleRequest(w http.ResponseWriter, r *http.Request) {
//	    logger := logging.FromContext(r.Context())
//	    logger.Info("preview requested", "file", name)
//	}
func FromContext(ctx context.Context) *slog.Logger {
	logger := slog.Default()

	// Chi's RequestID middleware stores the ID in context
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		logger = logger.With("request_id", reqID)
	}
	if scanID := ScanID(ctx); scanID != "" {
		logger = logger.With("scan_id", scanID)
	}

	return logger
}

// WithFields returns a context logger with additional structured fields.
//
// Usage:
//
//	scanLogger := logging.WithFields(ctx, "data_root", root)
//	scanLogger.Info("scan started")
//	// ... later ...
//	scanLogger.Info("scan completed", "files", n)
func WithFields(ctx context.Context, args ...any) *slog.Logger {
	return FromContext(ctx).With(args...)
}
