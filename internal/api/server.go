// Package api exposes the taskwire REST surface: owner-scoped CRUD for
// tasks and events, with every successful mutation published to the
// broadcast hub.
//
// All failures are converted to the HTTP taxonomy at this boundary:
// missing user context is 401, bad input is 400, an id/owner mismatch is
// 404 (a foreign record is indistinguishable from a missing one), and
// anything unexpected is a 500 with a deliberately uninformative body.
package api

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/taskwire/taskwire/internal/hub"
	"github.com/taskwire/taskwire/internal/store"
)

// Config holds server configuration.
type Config struct {
	// ListenAddr in host:port form (default: ":5000").
	ListenAddr string

	// JWTSecret signs and verifies bearer tokens. Required.
	JWTSecret string

	// CORSOrigins allowed on the REST surface (default: all).
	CORSOrigins []string

	// RateLimit is the sustained requests-per-second budget across all
	// callers, with RateBurst headroom (defaults: 50 rps, burst 100).
	RateLimit float64
	RateBurst int

	// Logger for server activity (default: stderr logger).
	Logger *log.Logger
}

// Server is the HTTP front of taskwire. The hub is injected at
// construction and shared with the controllers; there is no package
// global.
type Server struct {
	cfg      *Config
	store    *store.Store
	hub      *hub.Hub
	validate *validator.Validate
	limiter  *rate.Limiter
	logger   *log.Logger

	requests *prometheus.CounterVec
	errors   *prometheus.CounterVec
	registry *prometheus.Registry

	router   http.Handler
	listener net.Listener
	server   *http.Server
}

// New wires the router, middleware, and controllers. The store must be
// open with its schema initialized; the hub must be started by the
// caller.
func New(cfg *Config, st *store.Store, h *hub.Hub) *Server {
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":5000"
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 50
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 100
	}

	s := &Server{
		cfg:      cfg,
		store:    st,
		hub:      h,
		validate: validator.New(),
		limiter:  rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		logger:   cfg.Logger,
		registry: prometheus.NewRegistry(),
	}

	s.requests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskwire_requests_total",
		Help: "Total number of API requests by method and route.",
	}, []string{"method", "route"})
	s.errors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "taskwire_request_errors_total",
		Help: "Total number of API requests that returned an error status.",
	}, []string{"route", "status"})
	s.registry.MustRegister(s.requests, s.errors)

	s.router = s.buildRouter()
	return s
}

// buildRouter assembles the route table and middleware chain.
func (s *Server) buildRouter() http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	// The broadcast channel is unauthenticated: every connected client
	// receives every user's notifications.
	r.Handle("/ws", s.hub)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(s.rateLimitMiddleware, s.metricsMiddleware, s.authMiddleware)

	api.HandleFunc("/tasks", s.listTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", s.createTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/{id}", s.getTask).Methods(http.MethodGet)
	api.HandleFunc("/tasks/{id}", s.updateTask).Methods(http.MethodPut)
	api.HandleFunc("/tasks/{id}", s.deleteTask).Methods(http.MethodDelete)

	api.HandleFunc("/events", s.listEvents).Methods(http.MethodGet)
	api.HandleFunc("/events", s.createEvent).Methods(http.MethodPost)
	api.HandleFunc("/events/{id}", s.getEvent).Methods(http.MethodGet)
	api.HandleFunc("/events/{id}", s.updateEvent).Methods(http.MethodPut)
	api.HandleFunc("/events/{id}", s.deleteEvent).Methods(http.MethodDelete)

	origins := s.cfg.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(r)
}

// Handler returns the fully assembled handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins serving on the configured address.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.ListenAddr, err)
	}
	s.listener = ln

	s.server = &http.Server{
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 0, // WebSocket connections on /ws stay open
	}

	go func() {
		s.logger.Printf("API server listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && err != http.ErrServerClosed {
			s.logger.Printf("Server error: %v", err)
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Println("Stopping API server")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.cfg.ListenAddr
}

// handleHealth reports liveness and the connected client count.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"clients": s.hub.ClientCount(),
	})
}
