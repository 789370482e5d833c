package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"expensetracker/internal/core"
	applog "expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/middleware/trace"
	"expensetracker/internal/services"
	"expensetracker/internal/store"
)

const defaultCurrency = "RWF"

// Server serves the expense JSON API for one store.
type Server struct {
	http.Server

	store    *store.Store
	service  *services.ExpenseService
	currency string
	logger   *applog.Logger
	instance string

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware
	limits   ratelimit.Config
	events   eventsConfig

	// closed when Shutdown starts so long-lived event streams end.
	shuttingDown chan struct{}
	shutdownOnce sync.Once
}

// Option configures a Server.
type Option func(*Server)

// WithCurrency sets the label used for formatted totals.
func WithCurrency(currency string) Option {
	return func(s *Server) {
		if currency = strings.TrimSpace(currency); currency != "" {
			s.currency = currency
		}
	}
}

// WithLogger sets the logger used for request logs.
func WithLogger(l *applog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRateLimit overrides the limits applied to mutating requests.
func WithRateLimit(cfg ratelimit.Config) Option {
	return func(s *Server) { s.limits = cfg }
}

// WithEventHeartbeat sets the keep-alive interval of /api/events.
func WithEventHeartbeat(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.events.heartbeat = d
		}
	}
}

// NewServer configures routes and middleware, returning a ready-to-run server. The
// store is owned by the caller; svc must wrap the same store.
func NewServer(addr string, st *store.Store, svc *services.ExpenseService, opts ...Option) *Server {
	s := &Server{
		store:        st,
		service:      svc,
		currency:     defaultCurrency,
		instance:     strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		detector:     security.NewDetector(),
		limits:       ratelimit.DefaultConfig(),
		events:       defaultEventsConfig(),
		shuttingDown: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = applog.FromContext(context.Background())
	}
	s.logger = s.logger.WithComponent(applog.ComponentHTTP)
	s.limiter = ratelimit.NewLimiter(s.limits)
	s.tracer = trace.NewMiddleware(s.detector.ExtractClientIP, s.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/form", s.handleForm)
	mux.HandleFunc("GET /api/expenses", s.handleListExpenses)
	mux.HandleFunc("GET /api/expenses/{id}", s.handleGetExpense)
	mux.HandleFunc("POST /api/expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/events", s.handleEvents)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.FieldClientIP, s.detector.ExtractClientIP(r),
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path)
		TooManyRequestsError().Write(w)
	}, http.MethodPost, http.MethodDelete)

	var handler http.Handler = mux
	handler = limit(handler)
	handler = headers.Middleware(handler)
	handler = s.detector.Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16, // 64KB
	}
	return s
}

// Shutdown ends open event streams, stops the rate limiter and gracefully shuts down
// the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		close(s.shuttingDown)
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) isShuttingDown() bool {
	select {
	case <-s.shuttingDown:
		return true
	default:
		return false
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if s.store == nil || s.isShuttingDown() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("not ready"))
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// snapshot reads the collection with its entity tag and reports whether the request
// already holds that tag.
func (s *Server) snapshot(r *http.Request) ([]core.Expense, string, bool) {
	items, revision := s.store.Snapshot()
	tag := revisionETag(s.instance, revision)
	return items, tag, etagMatches(r.Header.Get("If-None-Match"), tag)
}
