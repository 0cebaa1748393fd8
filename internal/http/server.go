package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"fintrack/internal/cache"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/services"
)

// Options configures a Server. Zero values pick defaults.
type Options struct {
	// CatchUpOnRead runs recurring catch-up before listing transactions
	// unless the request overrides it with ?catchup=.
	CatchUpOnRead bool
	RateLimitRPM  int
	CacheSize     int
	CacheTTL      time.Duration
	Logger        *log.Logger
	// Ready reports backend health for /readyz.
	Ready func(ctx context.Context) error
	// Now overrides the clock used for default year and trailing months.
	Now func() time.Time
}

type Server struct {
	http.Server
	ledger        *services.LedgerService
	catchUpOnRead bool
	ready         func(ctx context.Context) error
	now           func() time.Time
	logger        *log.Logger

	// Year overviews and chart series, purged on every mutation.
	overviewCache *cache.LRUCache[[12]core.MonthOverview]
	chartCache    *cache.LRUCache[[]core.ChartPoint]
	caches        *cache.Manager

	limiter *ratelimit.Limiter
	ips     *security.ClientIPResolver
	tracer  *trace.Middleware

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, ledger *services.LedgerService, opts Options) *Server {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 64
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.Config{Component: log.ComponentHTTP})
	}

	s := &Server{
		ledger:        ledger,
		catchUpOnRead: opts.CatchUpOnRead,
		ready:         opts.Ready,
		now:           opts.Now,
		logger:        opts.Logger.WithComponent(log.ComponentHTTP),
		overviewCache: cache.NewLRUCache[[12]core.MonthOverview](opts.CacheSize, opts.CacheTTL),
		chartCache:    cache.NewLRUCache[[]core.ChartPoint](opts.CacheSize, opts.CacheTTL),
		caches:        cache.NewManager(),
		limiter:       ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitRPM}),
		ips:           security.NewClientIPResolver(),
	}
	s.tracer = trace.NewMiddleware(s.logger, s.ips.ClientIP)

	s.caches.Register(s.overviewCache)
	s.caches.Register(s.chartCache)
	s.caches.StartCleanup(10 * time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PATCH /api/categories/{id}", s.handleRenameCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)
	mux.HandleFunc("PUT /api/categories/order", s.handleReorderCategories)
	mux.HandleFunc("POST /api/categories/{id}/move", s.handleMoveCategory)
	mux.HandleFunc("GET /api/categories/{name}/total", s.handleCategoryTotal)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleAddTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/recurring", s.handleListRecurring)
	mux.HandleFunc("POST /api/recurring", s.handleAddRecurring)
	mux.HandleFunc("POST /api/recurring/catch-up", s.handleCatchUp)

	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/months", s.handleMonths)
	mux.HandleFunc("GET /api/chart", s.handleChart)
	mux.HandleFunc("GET /api/years", s.handleYears)

	mux.HandleFunc("GET /api/export", s.handleExport)
	mux.HandleFunc("POST /api/import", s.handleImport)

	var h http.Handler = s.limitWrites(mux)
	h = s.rejectProbes(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = log.ComponentMiddleware(log.ComponentHTTP)(h)
	h = s.tracer.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// limitWrites applies the per-client limiter to mutating requests only.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	limited := s.limiter.Middleware(s.ips.ClientIP, s.onRateLimited)(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			next.ServeHTTP(w, r)
		default:
			limited.ServeHTTP(w, r)
		}
	})
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, s.ips.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	TooManyRequestsError().Write(w)
}

func (s *Server) rejectProbes(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.ips.IsProbe(r) {
			log.FromContext(r.Context()).WithComponent(log.ComponentSecurity).WarnContext(r.Context(), "Rejected probe request",
				log.FieldClientIP, s.ips.ClientIP(r),
				log.FieldPath, r.URL.Path)
			ErrorResponse(http.StatusNotFound, "not_found", "not found").Write(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		hits, misses := s.overviewCache.Stats()
		s.logger.InfoContext(ctx, "Overview cache stats", "hits", hits, "misses", misses)
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics reports request counters for the process.
func (s *Server) Metrics() trace.Metrics {
	return s.tracer.GetMetrics()
}

// invalidate drops every derived view after a mutation.
func (s *Server) invalidate() {
	s.overviewCache.Purge()
	s.chartCache.Purge()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Payload(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, "not_ready", "backend unavailable").Write(w)
			return
		}
	}
	NewJSONResponse().Payload(map[string]string{"status": "ready"}).Write(w)
}

// fail logs err and writes its mapped response. Client errors log at warn.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := FromError(err)
	logger := log.FromContext(r.Context())
	if resp.statusCode >= http.StatusInternalServerError {
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err, log.ComponentHTTP, op, nil)
	} else {
		logger.WarnContext(r.Context(), "Request rejected",
			log.FieldOperation, op,
			log.FieldError, err)
	}
	resp.Write(w)
}

func badRequest(w http.ResponseWriter, err error) {
	msg := err.Error()
	if i := strings.Index(msg, "\n"); i >= 0 {
		msg = msg[:i]
	}
	BadRequestError(msg).Write(w)
}

// rejectBody answers a body that failed to decode. An unparseable amount is
// a validation failure; anything else is malformed input.
func (s *Server) rejectBody(w http.ResponseWriter, r *http.Request, op string, err error) {
	if errors.Is(err, core.ErrInvalidAmount) {
		s.fail(w, r, op, err)
		return
	}
	badRequest(w, err)
}
