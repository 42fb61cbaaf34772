// Package fakeapi is an in-memory implementation of the socialblog auth and
// content services. It backs the development server and the client tests.
package fakeapi

import (
	"crypto/rand"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/thebigwealth89/socialblog/pkg/domain"
)

// Refresh cookie attributes.
const (
	RefreshCookieName = "refreshToken"
	refreshCookiePath = "/api/auth"
)

// Config tunes a Server. Zero values fall back to the defaults below.
type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// BcryptCost defaults to bcrypt.DefaultCost; tests lower it.
	BcryptCost int
	Logger     zerolog.Logger
	// Rand supplies refresh token bytes. Defaults to crypto/rand.Reader.
	Rand io.Reader
}

const (
	defaultAccessTTL  = 15 * time.Minute
	defaultRefreshTTL = 7 * 24 * time.Hour
)

// Server serves the API. It is safe for concurrent use.
type Server struct {
	cfg      Config
	log      zerolog.Logger
	router   *mux.Router
	registry *prometheus.Registry
	metrics  *metrics

	mu           sync.Mutex
	offset       time.Duration
	accounts     map[string]*account
	refresh      map[string]*refreshRecord
	posts        []domain.Post
	lastAuth     map[string]string
	refreshFail  int
	refreshCalls int
}

type account struct {
	user domain.User
	hash []byte
}

// New builds a Server.
func New(cfg Config) *Server {
	if len(cfg.Secret) == 0 {
		cfg.Secret = []byte("socialblog-dev-secret")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = defaultAccessTTL
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.Reader
	}

	registry := prometheus.NewRegistry()
	s := &Server{
		cfg:      cfg,
		log:      cfg.Logger,
		registry: registry,
		metrics:  newMetrics(registry),
		accounts: make(map[string]*account),
		refresh:  make(map[string]*refreshRecord),
		lastAuth: make(map[string]string),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.Use(s.recordAuthorization)

	r.HandleFunc("/api/auth/register", s.handleRegister).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/refresh", s.handleRefresh).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", s.requireUser(s.handleLogout)).Methods(http.MethodPost)

	r.HandleFunc("/api/posts", s.requireUser(s.handleListPosts)).Methods(http.MethodGet)
	r.HandleFunc("/api/posts/", s.requireUser(s.handleListPosts)).Methods(http.MethodGet)
	r.HandleFunc("/api/posts", s.requireUser(s.handleCreatePost)).Methods(http.MethodPost)
	r.HandleFunc("/api/posts/", s.requireUser(s.handleCreatePost)).Methods(http.MethodPost)
	r.HandleFunc("/api/posts/{id}", s.requireUser(s.handleGetPost)).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}).Methods(http.MethodGet)
	return r
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Registry exposes the server's metrics.
func (s *Server) Registry() *prometheus.Registry { return s.registry }

func (s *Server) now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return time.Now().Add(s.offset)
}

// Advance moves the server clock forward, expiring tokens without sleeping.
func (s *Server) Advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.offset += d
}

// RefreshCalls returns how many refresh requests reached the server.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// FailRefresh makes every following refresh answer with status. Zero restores
// normal behaviour.
func (s *Server) FailRefresh(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshFail = status
}

// LastAuthorization returns the Authorization header of the last request to path.
func (s *Server) LastAuthorization(path string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.lastAuth[path]
	return v, ok
}

func (s *Server) recordAuthorization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.lastAuth[r.URL.Path] = r.Header.Get("Authorization")
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}
