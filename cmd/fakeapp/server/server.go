// Package server provides an importable stand-in for the job tracker app and
// its backend REST API. This allows E2E tests to run against a local target
// that they start and stop themselves.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Default account of the stand-in app.
const (
	DefaultUserID       = "3f6c1f1e-5d7a-4c8e-9a55-0d3c2b1a0e01"
	DefaultUserEmail    = "e2e@example.com"
	DefaultUserPassword = "e2e-password"
	DefaultAnonKey      = "local-anon-key"
)

// Config holds server configuration options.
type Config struct {
	Addr         string        // Listen address (e.g., ":3000" or ":0" for random port)
	ReadTimeout  time.Duration // HTTP read timeout
	WriteTimeout time.Duration // HTTP write timeout
	DBPath       string        // SQLite path, ":memory:" by default
	AnonKey      string        // value required in the apikey header of /auth/v1 and /rest/v1
	Users        []User        // accounts that can sign in
	Instrument   bool          // expose a window.__coverage__ object on app pages
	Logger       *zap.Logger
}

// DefaultConfig returns a configuration suitable for testing.
// Uses ":0" to bind to a random available port.
func DefaultConfig() Config {
	return Config{
		Addr:         ":0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		DBPath:       ":memory:",
		AnonKey:      DefaultAnonKey,
		Users: []User{{
			ID:       DefaultUserID,
			Email:    DefaultUserEmail,
			Password: DefaultUserPassword,
		}},
	}
}

// Server is the stand-in application.
type Server struct {
	httpServer *http.Server
	listener   net.Listener
	store      *Store
	accounts   *accounts
	cfg        Config
	log        *zap.Logger
	addr       string
	mu         sync.Mutex
	running    bool
}

// NewServer creates a new server with the given configuration.
// The server is not started until Start() is called.
func NewServer(cfg Config) (*Server, error) {
	if cfg.DBPath == "" {
		cfg.DBPath = ":memory:"
	}
	if cfg.AnonKey == "" {
		return nil, errors.New("anon key is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := OpenStore(context.Background(), cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	s := &Server{
		store:    store,
		accounts: newAccounts(cfg.Users),
		cfg:      cfg,
		log:      logger,
	}

	s.httpServer = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	// App pages
	r.Get("/", s.handleHome)
	r.Get("/auth/login", s.handleLoginPage)
	r.Get("/auth/signup", s.handleSignupPage)
	r.Post("/auth/session", s.handleSession)
	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/logout", s.handleLogout)

	// App API, cookie authenticated
	r.Route("/api/jobs", func(r chi.Router) {
		r.Use(s.requireSession)
		r.Get("/", s.handleListJobs)
		r.Post("/", s.handleCreateJob)
		r.Put("/", s.handleUpdateJob)
		r.Delete("/", s.handleDeleteJob)
		r.Get("/export", s.handleExport)
	})

	// Backend REST API
	r.Group(func(r chi.Router) {
		r.Use(s.requireAPIKey)
		r.Post("/auth/v1/token", s.handleToken)
		r.Delete("/rest/v1/jobs", s.handleRESTDelete)
	})

	return r
}

// Start begins listening and serving HTTP requests.
// Returns the actual address the server is listening on (useful when port is 0).
// This method is non-blocking - the server runs in a goroutine.
func (s *Server) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return s.addr, nil
	}

	// Create listener to get actual port
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = ln
	s.addr = ln.Addr().String()
	s.running = true

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("server stopped", zap.Error(err))
		}
	}()

	return s.addr, nil
}

// Shutdown gracefully shuts down the server and closes the store.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	err := s.httpServer.Shutdown(ctx)
	if cerr := s.store.Close(); err == nil {
		err = cerr
	}
	return err
}

// Addr returns the address the server is listening on.
// Returns empty string if server is not running.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// URL returns the http://localhost:port base URL of a running server.
func (s *Server) URL() string {
	_, port, err := net.SplitHostPort(s.Addr())
	if err != nil {
		return ""
	}
	return "http://localhost:" + port
}

// Store exposes the job store, for seeding and inspecting data in tests.
func (s *Server) Store() *Store {
	return s.store
}
