// Package http exposes the cascade engine as a small JSON API.
package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/cascade/infra/limits"
	"github.com/sawpanic/cascade/internal/config"
	"github.com/sawpanic/cascade/internal/metrics"
)

type ctxKey string

const requestIDKey ctxKey = "request_id"

// RequestID returns the request ID stored by the middleware, or "unknown".
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok {
		return id
	}
	return "unknown"
}

// Server represents the API server
type Server struct {
	router   *mux.Router
	server   *http.Server
	handlers *Handlers
	limiter  *limits.PerKeyLimiter
	metrics  *metrics.Registry
	config   ServerConfig
	stopCh   chan struct{}
}

// ServerConfig is the listener and middleware configuration.
type ServerConfig struct {
	Host           string
	Port           int
	RPS            float64
	Burst          int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	RequestTimeout time.Duration
}

// ServerConfigFrom maps the application HTTP settings.
func ServerConfigFrom(c config.HTTPConfig) ServerConfig {
	return ServerConfig{
		Host:           c.Host,
		Port:           c.Port,
		RPS:            c.RPS,
		Burst:          c.Burst,
		ReadTimeout:    c.ReadTimeout,
		WriteTimeout:   c.WriteTimeout,
		IdleTimeout:    60 * time.Second,
		RequestTimeout: 5 * time.Second,
	}
}

// NewServer creates a new HTTP server instance. m may be nil.
func NewServer(cfg ServerConfig, h *Handlers, m *metrics.Registry) *Server {
	s := &Server{
		router:   mux.NewRouter(),
		handlers: h,
		limiter:  limits.NewPerKeyLimiter(cfg.RPS, cfg.Burst),
		metrics:  m,
		config:   cfg,
		stopCh:   make(chan struct{}),
	}
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         s.Address(),
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return s
}

// setupRoutes wires /metrics outside the JSON subrouter.
func (s *Server) setupRoutes() {
	// Request ID first so every later layer can log it.
	s.router.Use(s.requestIDMiddleware)
	s.router.Use(s.requestLoggingMiddleware)
	s.router.Use(s.rateLimitMiddleware)
	s.router.Use(s.timeoutMiddleware)
	s.router.Use(s.corsMiddleware)

	s.router.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/").Subrouter()
	api.Use(s.jsonContentTypeMiddleware)
	api.HandleFunc("/health", s.handlers.Health).Methods(http.MethodGet)
	api.HandleFunc("/v1/cascade", s.handlers.Cascade).Methods(http.MethodPost)
	api.HandleFunc("/v1/history", s.handlers.History).Methods(http.MethodGet)

	s.router.NotFoundHandler = http.HandlerFunc(s.handlers.NotFound)
}

// Handler returns the routed handler with all middleware.
func (s *Server) Handler() http.Handler { return s.router }

// requestIDMiddleware reuses X-Request-ID or mints a uuid.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()[:8]
		}
		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLoggingMiddleware logs one line per request and records its latency.
func (s *Server) requestLoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.RecordRequest(route, fmt.Sprint(wrapper.statusCode))

		log.Info().
			Str("request_id", RequestID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapper.statusCode).
			Dur("duration", time.Since(start)).
			Str("remote", r.RemoteAddr).
			Msg("request")
	})
}

// rateLimitMiddleware applies the per-client token bucket
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow(clientKey(r)) {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			s.handlers.writeError(w, r, http.StatusTooManyRequests, "rate_limited",
				"Too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// timeoutMiddleware bounds each request by RequestTimeout.
func (s *Server) timeoutMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.RequestTimeout <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// corsMiddleware allows local dashboards to call the API.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Browsers on the same host only.
		origin := r.Header.Get("Origin")
		if strings.Contains(origin, "localhost") || strings.Contains(origin, "127.0.0.1") {
			w.Header().Set("Access-Control-Allow-Origin", origin)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// jsonContentTypeMiddleware marks every API response as JSON.
func (s *Server) jsonContentTypeMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

// Start listens and serves until Shutdown. It fails fast when the port is
// taken.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.Address())
	if err != nil {
		return fmt.Errorf("port %d is busy or unavailable: %w", s.config.Port, err)
	}
	log.Info().Str("addr", s.Address()).Msg("starting HTTP server")

	go s.sweepLimiter()
	return s.server.Serve(listener)
}

func (s *Server) sweepLimiter() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			if n := s.limiter.Sweep(); n > 0 {
				log.Debug().Int("buckets", n).Msg("dropped idle rate limit buckets")
			}
		}
	}
}

// Shutdown stops the sweeper and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("shutting down HTTP server")
	close(s.stopCh)
	return s.server.Shutdown(ctx)
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}

// responseWrapper remembers the status code.
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
