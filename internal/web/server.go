// Package web provides the HTTP API for the raw data dashboard.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"

	"github.com/JonMunkholm/rawready/internal/config"
	"github.com/JonMunkholm/rawready/internal/core"
	"github.com/JonMunkholm/rawready/internal/metrics"
	"github.com/JonMunkholm/rawready/internal/report"
	appmw "github.com/JonMunkholm/rawready/internal/web/middleware"
)

// ServiceName is reported by the root banner.
const ServiceName = "rawready"

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	RequestTimeout time.Duration
	AllowedOrigins []string
	Limiter        *core.ScanLimiter
	Metrics        *metrics.Metrics
}

// Server is the HTTP server for the dashboard API.
type Server struct {
	builder *report.Builder
	limiter *core.ScanLimiter
	metrics *metrics.Metrics
	opts    Options
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a new Server instance.
func NewServer(builder *report.Builder, opts Options) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 90 * time.Second
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if opts.Limiter == nil {
		opts.Limiter = core.NewScanLimiter(0, 0)
	}

	s := &Server{
		builder: builder,
		limiter: opts.Limiter,
		metrics: opts.Metrics,
		opts:    opts,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(appmw.Logger)
	s.router.Use(appmw.Metrics(s.metrics))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.opts.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Get("/", s.handleRoot)
	s.router.Get("/health", s.handleHealth)
	if s.metrics != nil {
		s.router.Handle("/metrics", s.metrics.Handler())
	}

	s.router.Route("/api/raw/dashboard", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		// Full scans
		r.Get("/summary", s.handleSummary)
		r.Get("/files", s.handleFiles)
		r.Get("/prd-checks", s.handleChecks)
		r.Get("/checks", s.handleChecks)

		// Rule document
		r.Get("/rules", s.handleRules)

		// Single-file preview; the wildcard keeps nested paths intact
		r.Get("/file/*", s.handlePreview)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start(cfg config.ServerConfig) error {
	s.server = &http.Server{
		Addr:         cfg.Addr(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	slog.Info("server starting",
		"addr", cfg.Addr(),
		"data_root", s.builder.Sandbox().Root(),
	)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server and waits for in-flight scans.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	return s.limiter.WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent MIME type sniffing
		w.Header().Set("X-Content-Type-Options", "nosniff")

		// Prevent clickjacking
		w.Header().Set("X-Frame-Options", "DENY")

		// The API serves JSON only; nothing should load from its responses
		w.Header().Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")

		// Control referrer information
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}
