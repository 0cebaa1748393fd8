package log

import (
	"context"
	"log/slog"
	"net/http"
)

type ContextKey string

// LoggerContextKey carries the request-scoped *Logger.
const LoggerContextKey ContextKey = "logger"

// NewContext returns ctx carrying logger for FromContext.
func NewContext(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext returns the logger stored by NewContext, or one wrapping
// slog.Default with component "unknown".
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{Logger: slog.Default(), component: "unknown"}
}

// ComponentMiddleware retags the request logger with component.
func ComponentMiddleware(component string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := FromContext(r.Context()).WithComponent(component)
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), logger)))
		})
	}
}

// StructuredLogger writes the ledger's recurring log records with a fixed
// field layout.
type StructuredLogger struct {
	logger *Logger
}

func NewStructuredLogger(logger *Logger) *StructuredLogger {
	return &StructuredLogger{logger: logger}
}

// LogHTTPEnd records a finished request. 4xx logs at warn, 5xx at error.
func (sl *StructuredLogger) LogHTTPEnd(ctx context.Context, r *http.Request, statusCode int, durationMs int64, clientIP string) {
	level := slog.LevelInfo
	switch {
	case statusCode >= 500:
		level = slog.LevelError
	case statusCode >= 400:
		level = slog.LevelWarn
	}

	fields := NewFields().
		WithHTTPRequest(r.Method, r.URL.Path, r.URL.RawQuery, r.UserAgent()).
		WithHTTPResponse(statusCode, durationMs, statusCode < 400).
		WithClientIP(clientIP).
		WithComponent(ComponentHTTP)
	sl.logger.Logger.Log(ctx, level, "HTTP request completed", fields.ToSlice()...)
}

// LogTransactionAdded records a committed transaction.
func (sl *StructuredLogger) LogTransactionAdded(ctx context.Context, id, txType string, amount float64, category string) {
	fields := NewFields().
		WithTransaction(id, txType, amount, category).
		WithOperation(OpCreate).
		WithComponent(ComponentLedger)
	sl.logger.Logger.InfoContext(ctx, "Transaction added", fields.ToSlice()...)
}

// LogError records err at error level. fields may be nil.
func (sl *StructuredLogger) LogError(ctx context.Context, msg string, err error, component, operation string, fields LogFields) {
	if fields == nil {
		fields = NewFields()
	}
	fields = fields.WithError(err).WithOperation(operation).WithComponent(component)
	sl.logger.Logger.ErrorContext(ctx, msg, fields.ToSlice()...)
}
