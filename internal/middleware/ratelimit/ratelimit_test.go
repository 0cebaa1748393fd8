package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiter_AllowPerClient(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, Burst: 2, CleanupInterval: time.Hour})
	defer rl.Stop()

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "buckets are per client")

	assert.Equal(t, 2, rl.ActiveClients())
	assert.Equal(t, int64(1), rl.Rejected())

	rl.evictIdle(time.Now().Add(time.Second))
	assert.Equal(t, 0, rl.ActiveClients())
}

func TestLimiter_Middleware(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1, Burst: 1, CleanupInterval: time.Hour})
	defer rl.Stop()

	h := rl.Middleware(func(r *http.Request) string { return "same" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestLimiter_StopIsIdempotent(t *testing.T) {
	rl := NewLimiter(Config{})
	rl.Stop()
	rl.Stop()
}
