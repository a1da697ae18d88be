// Package server wires the HTTP API: market data, optimization and
// quantum job endpoints plus system monitoring.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/1ucian0/client-superstaq/internal/config"
	"github.com/1ucian0/client-superstaq/internal/database"
	"github.com/1ucian0/client-superstaq/internal/modules/jobs"
	"github.com/1ucian0/client-superstaq/internal/modules/marketdata"
	"github.com/1ucian0/client-superstaq/internal/modules/optimization"
	"github.com/1ucian0/client-superstaq/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	HistoryDB *database.DB
	JobsDB    *database.DB
	Scheduler *scheduler.Scheduler

	MarketDataService *marketdata.Service
	OptimizerService  *optimization.SharpeService
	JobsService       *jobs.Service
	BalanceFetcher    BalanceFetcher
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	cfg       *config.Config
	historyDB *database.DB
	jobsDB    *database.DB

	systemHandlers     *SystemHandlers
	marketDataHandlers *marketdata.Handler
	optimizerHandlers  *optimization.Handler
	jobsHandlers       *jobs.Handler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		cfg:       cfg.Config,
		historyDB: cfg.HistoryDB,
		jobsDB:    cfg.JobsDB,

		systemHandlers:     NewSystemHandlers(cfg.Log, cfg.Config.DataDir, cfg.HistoryDB, cfg.JobsDB, cfg.Scheduler, cfg.BalanceFetcher),
		marketDataHandlers: marketdata.NewHandler(cfg.MarketDataService, cfg.Log),
		optimizerHandlers:  optimization.NewHandler(cfg.OptimizerService, cfg.Log),
		jobsHandlers:       jobs.NewHandler(cfg.JobsService, cfg.Log),
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second, // optimization runs take a while
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// SetJobs registers job instances for manual triggering via API
func (s *Server) SetJobs(priceSync, jobRefresh scheduler.Job) {
	s.systemHandlers.SetJobs(priceSync, jobRefresh)
}

// Router exposes the configured handler, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// Timeout
	s.router.Use(middleware.Timeout(120 * time.Second))

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	// Health check
	s.router.Get("/health", s.handleHealth)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		// System monitoring and operations
		s.setupSystemRoutes(r)

		// Market data module
		r.Route("/prices", func(r chi.Router) {
			r.Get("/", s.marketDataHandlers.HandleListSymbols)
			r.Post("/sync", s.marketDataHandlers.HandleSync)
			r.Get("/quotes", s.marketDataHandlers.HandleQuotes)
			r.Get("/{symbol}", s.marketDataHandlers.HandleGetPrices)
			r.Get("/{symbol}/quote", s.marketDataHandlers.HandleQuote)
			r.Get("/{symbol}/indicator", s.marketDataHandlers.HandleIndicator)
		})

		// Optimization module
		r.Route("/optimizer", func(r chi.Router) {
			r.Post("/run", s.optimizerHandlers.HandleRun)
			r.Get("/runs", s.optimizerHandlers.HandleHistory)
		})

		// Quantum jobs module
		r.Route("/jobs", func(r chi.Router) {
			r.Post("/", s.jobsHandlers.HandleSubmit)
			r.Get("/", s.jobsHandlers.HandleList)
			r.Get("/{id}", s.jobsHandlers.HandleGet)
			r.Get("/{id}/result", s.jobsHandlers.HandleResult)
			r.Post("/{id}/cancel", s.jobsHandlers.HandleCancel)
		})

		// Remote account endpoints
		r.Get("/balance", s.jobsHandlers.HandleBalance)
		r.Route("/targets", func(r chi.Router) {
			r.Get("/", s.jobsHandlers.HandleTargets)
			r.Get("/{target}", s.jobsHandlers.HandleTargetInfo)
		})
	})
}

// setupSystemRoutes configures system monitoring routes
func (s *Server) setupSystemRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", s.systemHandlers.HandleSystemStatus)
		r.Get("/databases", s.systemHandlers.HandleDatabaseStats)
		r.Get("/disk", s.systemHandlers.HandleDiskUsage)
		r.Post("/jobs/price-sync", s.systemHandlers.HandleTriggerPriceSync)
		r.Post("/jobs/job-refresh", s.systemHandlers.HandleTriggerJobRefresh)
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// handleHealth responds to liveness probes.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","time":"%s"}`, time.Now().UTC().Format(time.RFC3339))
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
