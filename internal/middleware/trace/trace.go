package trace

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/log"
)

// ContextKey type for context keys
type ContextKey string

// RequestIDKey is the context key for request ID
const RequestIDKey ContextKey = "request_id"

// HeaderRequestID carries the request id in and out.
const HeaderRequestID = "X-Request-ID"

// Middleware assigns request ids, scopes a logger to the request and logs
// completion.
type Middleware struct {
	clientIP func(*http.Request) string
	logger   *log.Logger
	total    atomic.Int64
	errors   atomic.Int64
}

// Metrics tracks request metrics
type Metrics struct {
	TotalRequests int64
	ServerErrors  int64
}

// NewMiddleware creates a new trace middleware
func NewMiddleware(logger *log.Logger, clientIP func(*http.Request) string) *Middleware {
	return &Middleware{clientIP: clientIP, logger: logger}
}

func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(HeaderRequestID)
		if _, err := uuid.Parse(requestID); err != nil {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		clientIP := ""
		if m.clientIP != nil {
			clientIP = m.clientIP(r)
		}

		reqLogger := m.logger.With(log.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
		ctx = log.NewContext(ctx, reqLogger)
		r = r.WithContext(ctx)

		m.total.Add(1)
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		if rw.statusCode >= 500 {
			m.errors.Add(1)
		}
		log.NewStructuredLogger(reqLogger).LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// GenerateRequestID returns a random UUID, falling back to a timestamp.
func GenerateRequestID() string {
	id, err := uuid.NewRandom()
	if err == nil {
		return id.String()
	}
	return fmt.Sprintf("req_%d", time.Now().UnixNano())
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}

// GetMetrics returns current metrics
func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests: m.total.Load(),
		ServerErrors:  m.errors.Load(),
	}
}
