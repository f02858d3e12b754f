package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"

	"lantern-hq/lantern/pkg/config"
	"lantern-hq/lantern/pkg/middleware"
	"lantern-hq/lantern/pkg/telemetry/health"
	"lantern-hq/lantern/pkg/telemetry/logging"
	"lantern-hq/lantern/pkg/telemetry/metrics"
	"lantern-hq/lantern/pkg/telemetry/tracing"

	"go.uber.org/zap"
)

// ServerRequestRoute is the instrumented demo route and its span name.
const ServerRequestRoute = "server_request"

// Server is the instrumented HTTP server.
type Server struct {
	config     *config.Config
	tracer     *tracing.Tracer
	metrics    *metrics.Collector
	checker    *health.Checker
	logger     *zap.Logger
	redactor   *logging.Redactor
	version    health.VersionInfo
	httpServer *http.Server
	listener   net.Listener
	mu         sync.RWMutex
	isRunning  bool
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics records request metrics and mounts the metrics endpoint.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Server) { s.metrics = c }
}

// WithHealth mounts the liveness, readiness and version endpoints.
func WithHealth(c *health.Checker, info health.VersionInfo) Option {
	return func(s *Server) {
		s.checker = c
		s.version = info
	}
}

// WithLogger sets the logger used for access logs and handlers.
func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRedactor sets the redactor used for logged headers and parameters.
func WithRedactor(r *logging.Redactor) Option {
	return func(s *Server) { s.redactor = r }
}

// New creates a server. tracer must not be nil; use a disabled tracer to
// serve without tracing.
func New(cfg *config.Config, tracer *tracing.Tracer, opts ...Option) *Server {
	s := &Server{
		config: cfg,
		tracer: tracer,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.redactor == nil {
		s.redactor = logging.NewRedactor(cfg.Telemetry.Logging.RedactHeaders)
	}
	s.logger = s.logger.Named("server")
	return s
}

// Start binds the listen address and serves in the background. Bind
// errors are returned immediately.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return fmt.Errorf("server is already running")
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.config.Server.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.Server.ListenAddress, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:        s.Handler(),
		ReadTimeout:    s.config.Server.ReadTimeout,
		WriteTimeout:   s.config.Server.WriteTimeout,
		IdleTimeout:    s.config.Server.IdleTimeout,
		MaxHeaderBytes: s.config.Server.MaxHeaderBytes,
		ErrorLog:       zap.NewStdLog(s.logger),
	}
	s.isRunning = true

	s.logger.Info("starting server",
		zap.String("address", ln.Addr().String()),
		zap.Bool("tracing", s.tracer.Enabled()),
		zap.Strings("destinations", s.tracer.Destinations()),
	)

	go func(srv *http.Server) {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("server error", zap.Error(err))
		}
	}(s.httpServer)

	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight
// requests (and their span exports) up to the shutdown timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.isRunning {
		return nil
	}

	timeout := s.config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = config.DefaultShutdownTimeout
	}
	s.logger.Info("initiating graceful shutdown", zap.Duration("timeout", timeout))

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s.isRunning = false
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("error during server shutdown", zap.Error(err))
		return fmt.Errorf("server shutdown error: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return middleware.Chain(s.routes(),
		middleware.Recovery(s.logger),
		middleware.RequestID,
		middleware.AccessLog(s.logger, s.redactor),
	)
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	var serverRequest http.Handler = s.tracer.Middleware(ServerRequestRoute)(http.HandlerFunc(s.handleServerRequest))
	if s.metrics != nil {
		serverRequest = s.metrics.Middleware(ServerRequestRoute)(serverRequest)
		if s.config.Telemetry.Metrics.Enabled {
			mux.Handle(metricsPath(s.config), s.metrics.Handler())
		}
	}
	mux.Handle("/"+ServerRequestRoute, serverRequest)

	if s.checker != nil && s.config.Telemetry.Health.Enabled {
		health.Register(mux, s.checker, s.config.Telemetry.Health, s.version)
	}

	return mux
}

func metricsPath(cfg *config.Config) string {
	if cfg.Telemetry.Metrics.Path == "" {
		return config.DefaultMetricsPath
	}
	return cfg.Telemetry.Metrics.Path
}
