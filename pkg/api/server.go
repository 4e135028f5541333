package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SamraT-Hacking/Ludo-Baji-sub001/pkg/engine"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ServerConfig holds the server configuration.
type ServerConfig struct {
	Host         string        // Host to bind to (default "localhost")
	Port         int           // Port to listen on (default 8080)
	ReadTimeout  time.Duration // Read timeout (default 30s)
	WriteTimeout time.Duration // Write timeout (default 30s)
	IdleTimeout  time.Duration // Idle timeout (default 60s)
	MaxWorkers   int           // Max concurrent analysis requests (default 64)
	WSRate       float64       // WebSocket messages per second per connection (default 20)
	WSBurst      int           // WebSocket burst size (default 40)
}

// DefaultConfig returns a ServerConfig with sensible defaults.
func DefaultConfig() ServerConfig {
	return ServerConfig{
		Host:         "localhost",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		MaxWorkers:   64,
		WSRate:       20,
		WSBurst:      40,
	}
}

// Server is the HTTP API server.
type Server struct {
	config   ServerConfig
	handlers *Handlers
	server   *http.Server
	pool     *WorkerPool
	version  string
	log      zerolog.Logger
}

// NewServer creates a new API server.
func NewServer(e *engine.Engine, config ServerConfig, version string, logger zerolog.Logger) *Server {
	pool := NewWorkerPool(PoolConfig{MaxWorkers: config.MaxWorkers})
	handlers := NewHandlersWithPool(e, version, pool).WithLogger(logger)
	if config.WSRate > 0 && config.WSBurst > 0 {
		handlers.WithRateLimit(config.WSRate, config.WSBurst)
	}

	return &Server{
		config:   config,
		handlers: handlers,
		pool:     pool,
		version:  version,
		log:      logger,
	}
}

// Pool returns the worker pool for monitoring.
func (s *Server) Pool() *WorkerPool {
	return s.pool
}

// corsMiddleware adds CORS headers for browser access.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (r *statusRecorder) Unwrap() http.ResponseWriter { return r.ResponseWriter }

// loggingMiddleware logs every request with a request ID.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		if r.URL.Path == "/api/ws" {
			// the upgrader needs the raw ResponseWriter
			next.ServeHTTP(w, r)
			s.log.Info().Str("request_id", id).Str("path", r.URL.Path).Dur("duration", time.Since(start)).Msg("websocket closed")
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// routes configures all API routes.
func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handlers.Health)
	mux.HandleFunc("POST /api/path", s.handlers.Path)
	mux.HandleFunc("POST /api/interaction", s.handlers.Interaction)
	mux.HandleFunc("POST /api/move", s.handlers.Move)
	mux.HandleFunc("POST /api/tutor/move", s.handlers.HandleTutorMove)
	mux.HandleFunc("/api/ws", s.handlers.WebSocket)

	return corsMiddleware(s.loggingMiddleware(mux))
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.routes()
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.routes(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
	}

	s.log.Info().Str("version", s.version).Str("addr", addr).Msg("starting Ludo analysis server")
	s.log.Info().Msg("  GET  /api/health       - Health check")
	s.log.Info().Msg("  POST /api/path         - Resolve a piece's path")
	s.log.Info().Msg("  POST /api/interaction  - Predict capture and blockades")
	s.log.Info().Msg("  POST /api/move         - Rank candidate moves")
	s.log.Info().Msg("  POST /api/tutor/move   - Review a played move")
	s.log.Info().Msg("  WS   /api/ws           - WebSocket for real-time analysis")

	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// ListenAndServeWithGracefulShutdown starts the server and handles shutdown signals.
func (s *Server) ListenAndServeWithGracefulShutdown() error {
	errChan := make(chan error, 1)

	go func() {
		if err := s.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		s.log.Info().Stringer("signal", sig).Msg("shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	s.log.Info().Msg("server stopped gracefully")
	return nil
}
