// Package http exposes the budget engine as a JSON API.
package http

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"budgetlens/internal/backend"
	"budgetlens/internal/cache"
	"budgetlens/internal/core"
	"budgetlens/internal/log"
	"budgetlens/internal/middleware/ratelimit"
	"budgetlens/internal/middleware/security"
	"budgetlens/internal/middleware/trace"
)

const storeTimeout = 10 * time.Second

type Options struct {
	Logger             *log.Logger
	RateLimitPerMinute int
	// Now overrides the clock used for default periods.
	Now func() time.Time
}

type Server struct {
	http.Server
	app *backend.Backend

	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	caches   *cache.Manager
	started  time.Time
	now      func() time.Time
	stopOnce sync.Once
}

// NewServer builds the router and middleware chain. Call Start to begin
// background cleanup of rate-limit windows and ListenAndServe to serve.
func NewServer(addr string, app *backend.Backend, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ips := security.NewIPResolver()
	s := &Server{
		app:     app,
		limiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		tracer:  trace.NewMiddleware(opts.Logger, ips.ClientIP),
		caches:  cache.NewManager(),
		started: time.Now(),
		now:     opts.Now,
	}
	s.caches.Register(s.limiter.Cleaner())

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusNotFound, "not found", "").Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusMethodNotAllowed, "method not allowed", "").Write(w)
	})

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.limiter.Middleware(ips.ClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later", "").Write(w)
	}))
	s.routes(api)

	var handler http.Handler = r
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(api *mux.Router) {
	api.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	api.HandleFunc("/categories", s.handleCreateCategory).Methods(http.MethodPost)
	api.HandleFunc("/categories/{id:[0-9]+}", s.handleGetCategory).Methods(http.MethodGet)
	api.HandleFunc("/categories/{id:[0-9]+}", s.handleUpdateCategory).Methods(http.MethodPut)
	api.HandleFunc("/categories/{id:[0-9]+}", s.handleDeleteCategory).Methods(http.MethodDelete)

	api.HandleFunc("/budgets", s.handleListBudgets).Methods(http.MethodGet)
	api.HandleFunc("/budgets", s.handleCreateBudget).Methods(http.MethodPost)
	api.HandleFunc("/budgets/status", s.handleBudgetStatus).Methods(http.MethodGet)
	api.HandleFunc("/budgets/overview", s.handleBudgetOverview).Methods(http.MethodGet)
	api.HandleFunc("/budgets/{id:[0-9]+}", s.handleGetBudget).Methods(http.MethodGet)
	api.HandleFunc("/budgets/{id:[0-9]+}", s.handleUpdateBudget).Methods(http.MethodPut)
	api.HandleFunc("/budgets/{id:[0-9]+}", s.handleDeleteBudget).Methods(http.MethodDelete)

	api.HandleFunc("/expenses", s.handleListExpenses).Methods(http.MethodGet)
	api.HandleFunc("/expenses", s.handleCreateExpense).Methods(http.MethodPost)
	api.HandleFunc("/expenses/check", s.handleCheckExpense).Methods(http.MethodPost)
	api.HandleFunc("/expenses/{id:[0-9]+}", s.handleGetExpense).Methods(http.MethodGet)
	api.HandleFunc("/expenses/{id:[0-9]+}", s.handleUpdateExpense).Methods(http.MethodPut)
	api.HandleFunc("/expenses/{id:[0-9]+}", s.handleDeleteExpense).Methods(http.MethodDelete)

	period := "/reports/{year:[0-9]{4}}/{month:[0-9]{1,2}}"
	api.HandleFunc(period, s.handleReport).Methods(http.MethodGet)
	api.HandleFunc(period+"/export.csv", s.handleExportCSV).Methods(http.MethodGet)
	api.HandleFunc(period+"/export.xlsx", s.handleExportXLSX).Methods(http.MethodGet)
	api.HandleFunc(period+"/chart/{kind:[a-z]+}.png", s.handleChart).Methods(http.MethodGet)
}

// Start launches background cache cleanup.
func (s *Server) Start(interval time.Duration) {
	s.caches.StartCleanup(interval)
}

// Shutdown stops cache cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.caches.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// monthlyReport builds the report for the period from the store. Reports
// are never cached: other processes may write to the same store.
func (s *Server) monthlyReport(ctx context.Context, month, year int) (core.MonthlyReport, error) {
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()
	rep, err := s.app.Reports.BuildReport(ctx, month, year)
	if err != nil {
		return core.MonthlyReport{}, err
	}
	log.FromContext(ctx).DebugContext(ctx, "Report built",
		log.NewFields().WithPeriod(month, year).ToSlice()...)
	return rep, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(s.started).Round(time.Second).String(),
	}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]any{
		"store": "ok",
		"rate_limiter": map[string]any{
			"active_clients": s.limiter.ActiveClients(),
			"limited":        s.limiter.Limited(),
		},
		"amqp": "disabled",
	}
	if s.app.Alerts != nil {
		checks["amqp"] = "enabled"
	}

	status, code := "ready", http.StatusOK
	if err := s.app.Store.Ping(ctx); err != nil {
		checks["store"] = fmt.Sprintf("failed: %v", err)
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	NewJSONResponse().Status(code).Body(map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	}).Write(w)
}
