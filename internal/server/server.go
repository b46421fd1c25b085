package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/hoard/pkg/health"
	"github.com/dmitrymomot/hoard/pkg/logger"
	"github.com/dmitrymomot/hoard/pkg/memo"
	"github.com/dmitrymomot/hoard/pkg/metrics"
	"github.com/dmitrymomot/hoard/pkg/shard"
)

const (
	defaultMaxBodySize = 1 << 20
	defaultWarmTimeout = 30 * time.Second
)

// Server exposes an entry cache and an optional memoized lookup over HTTP.
type Server struct {
	entries   *shard.Cache[[]byte]
	lookup    *memo.Func[string, []byte]
	collector *metrics.Collector
	checks    health.Checks
	logger    *slog.Logger
	maxBody   int64
}

// Option configures a Server.
type Option func(*Server)

// WithLookup enables the /v1/lookup routes.
func WithLookup(f *memo.Func[string, []byte]) Option {
	return func(s *Server) {
		s.lookup = f
	}
}

// WithChecks adds readiness checks.
func WithChecks(checks health.Checks) Option {
	return func(s *Server) {
		for name, check := range checks {
			s.checks[name] = check
		}
	}
}

// WithLogger sets the request and error logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMaxBodySize limits PUT bodies.
// Default: 1MB.
func WithMaxBodySize(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxBody = n
		}
	}
}

// New creates a server over entries. Cache names must be unique, since they
// label the exported metrics.
func New(entries *shard.Cache[[]byte], opts ...Option) *Server {
	s := &Server{
		entries: entries,
		checks:  make(health.Checks),
		logger:  logger.NewNope(),
		maxBody: defaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.collector = metrics.NewCollector("hoard", entries)
	if s.lookup != nil {
		if err := s.collector.Add(s.lookup.Cache()); err != nil {
			panic(err)
		}
	}
	return s
}

// Collector returns the metrics collector over the server's caches.
func (s *Server) Collector() *metrics.Collector { return s.collector }

func (s *Server) readinessOptions() []health.Option {
	opts := []health.Option{
		health.WithLogger(s.logger),
		health.WithCache(s.entries.Name(), s.entries),
	}
	if s.lookup != nil {
		opts = append(opts, health.WithCache(s.lookup.Cache().Name(), s.lookup.Cache()))
	}
	return opts
}

// Handler returns the routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(
		RequestID(),
		Recover(s.logger),
		RequestLogger(s.logger),
	)

	r.Get("/healthz", health.LivenessHandler())
	r.Get("/readyz", health.ReadinessHandler(s.checks, s.readinessOptions()...))
	r.Handle("/metrics", metrics.Handler(s.collector))

	r.Route("/v1", func(r chi.Router) {
		r.Get("/stats", s.handleStats)

		r.Delete("/entries", s.handleClear)
		r.Get("/entries", s.handleKeys)
		r.Get("/entries/{key}", s.handleGet)
		r.Put("/entries/{key}", s.handlePut)
		r.Delete("/entries/{key}", s.handleDelete)

		r.Route("/lookup", func(r chi.Router) {
			r.Use(s.requireLookup)
			r.Post("/warm", s.handleWarm)
			r.Get("/{key}", s.handleLookup)
			r.Delete("/{key}", s.handleForget)
		})
	})

	return r
}

func (s *Server) requireLookup(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.lookup == nil {
			writeError(w, http.StatusNotImplemented, ErrLookupDisabled)
			return
		}
		next.ServeHTTP(w, r)
	})
}
