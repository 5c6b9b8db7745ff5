package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/agbru/qsag/internal/config"
	apperrors "github.com/agbru/qsag/internal/errors"
	"github.com/agbru/qsag/internal/logging"
	"github.com/agbru/qsag/internal/qpoly"
	"github.com/agbru/qsag/internal/service"
)

// Server represents the HTTP server of the sag map API.
// It wraps the standard http.Server and adds application-specific configuration
// and graceful shutdown capabilities.
type Server struct {
	registry       *qpoly.Registry
	service        service.Service
	cfg            config.AppConfig
	httpServer     *http.Server
	logger         logging.Logger
	shutdownSignal chan os.Signal
	rateLimiter    *RateLimiter
	securityConfig SecurityConfig
	metrics        *Metrics
	timeouts       Timeouts
}

// NewServer creates a new Server over the given family registry.
// It initializes the HTTP server with timeouts and a request multiplexer.
//
// Parameters:
//   - registry: The family registry; nil selects qpoly.GlobalRegistry().
//   - cfg: The application configuration (port, default grid).
//   - opts: Optional functional options for customizing the server (e.g., WithLogger).
//
// Returns:
//   - *Server: A pointer to the initialized Server.
func NewServer(registry *qpoly.Registry, cfg config.AppConfig, opts ...Option) *Server {
	s := &Server{
		registry:       registry,
		cfg:            cfg,
		logger:         logging.NewLogger(os.Stdout, "server"),
		shutdownSignal: make(chan os.Signal, 1),
		securityConfig: DefaultSecurityConfig(),
		metrics:        NewMetrics(),
		timeouts:       DefaultServerTimeouts(),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.service == nil {
		s.service = service.NewSagService(s.registry, service.Limits{
			MaxSamples:    s.securityConfig.MaxSamples,
			MaxOrder:      s.securityConfig.MaxOrder,
			MaxCacheBytes: s.securityConfig.MaxCacheBytes,
		})
	}
	if s.rateLimiter == nil {
		s.rateLimiter = NewRateLimiter(DefaultRateLimiterConfig())
	}

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      s.routes(),
		ReadTimeout:  s.timeouts.ReadTimeout,
		WriteTimeout: s.timeouts.WriteTimeout,
		IdleTimeout:  s.timeouts.IdleTimeout,
	}

	return s
}

// routes builds the request multiplexer.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/sag", s.wrapWithMiddleware(s.handleSag))
	mux.HandleFunc("/families", s.wrapWithMiddleware(s.handleFamilies))
	mux.HandleFunc("/cache", s.wrapWithMiddleware(s.handleCache))
	mux.HandleFunc("/health", s.wrapWithMiddleware(s.handleHealth))
	mux.HandleFunc("/metrics", s.wrapWithMiddleware(s.handleMetrics))
	return mux
}

// Handler returns the HTTP handler with every route and middleware applied.
func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

// wrapWithMiddleware applies the full middleware chain to a handler:
// Security -> RateLimit -> Logging -> Metrics -> Handler.
func (s *Server) wrapWithMiddleware(handler http.HandlerFunc) http.HandlerFunc {
	wrapped := s.metricsMiddleware(handler)
	wrapped = s.loggingMiddleware(wrapped)
	wrapped = RateLimitMiddleware(s.rateLimiter, wrapped)
	wrapped = SecurityMiddleware(s.securityConfig, wrapped)
	return wrapped
}

// Start initializes and starts the HTTP server.
// It listens for incoming requests on the configured port and handles system
// signals (SIGINT, SIGTERM) to ensure a graceful shutdown.
//
// Returns:
//   - error: An error if the server fails to start or shuts down unexpectedly.
func (s *Server) Start() error {
	signal.Notify(s.shutdownSignal, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(s.shutdownSignal)
	defer s.rateLimiter.Stop()

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("starting server",
			logging.String("addr", s.httpServer.Addr),
			logging.Int("samples", s.cfg.Samples),
			logging.Float64("rho_max", s.cfg.RhoMax),
			logging.Int("max_samples", s.securityConfig.MaxSamples),
			logging.Int("max_order", s.securityConfig.MaxOrder),
			logging.Int64("max_cache_bytes", s.securityConfig.MaxCacheBytes))
		s.logger.Println("Available endpoints:")
		s.logger.Println("  POST /sag   GET /sag?family=<f>&coefs=<A0=1,...>&samples=<n>&rho_max=<r>")
		s.logger.Println("  GET /families   GET|DELETE /cache   GET /health   GET /metrics")

		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-s.shutdownSignal:
		s.logger.Println("Shutdown signal received, initiating graceful shutdown...")
	case err := <-errCh:
		return apperrors.NewServerError("server failed to start", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.timeouts.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return apperrors.NewServerError("failed to gracefully shutdown server", err)
	}

	s.logger.Println("Server stopped gracefully")
	return nil
}
