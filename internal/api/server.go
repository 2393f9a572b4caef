// Package api serves the cities REST API over a types.CityTable.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/mesh-intelligence/worldwise/internal/logging"
	"github.com/mesh-intelligence/worldwise/pkg/types"
)

// Default values for server options.
const (
	DefaultWithinKm   = 100
	DefaultCacheTTL   = 5 * time.Minute
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 5 * time.Second
)

// DefaultCORSOrigins are the local front-end dev servers.
var DefaultCORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

// Server is the cities API.
type Server struct {
	table   types.CityTable
	logger  *slog.Logger
	cache   *cityCache
	metrics *metrics
	health  func() error

	rateLimit   float64
	rateBurst   int
	corsOrigins []string
	cacheTTL    time.Duration

	handler http.Handler
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger.With(slog.String("component", "api")) }
}

// WithRateLimit allows perSecond requests per second with the given burst.
// A perSecond of zero disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		s.rateLimit = perSecond
		s.rateBurst = burst
	}
}

// WithCORSOrigins sets the origins allowed to call the API from a browser.
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) { s.corsOrigins = origins }
}

// WithCacheTTL sets how long single-city lookups are cached. Zero disables
// the cache.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Server) { s.cacheTTL = ttl }
}

// WithHealthCheck sets the probe behind GET /health.
func WithHealthCheck(fn func() error) Option {
	return func(s *Server) { s.health = fn }
}

// New returns a server for table.
func New(table types.CityTable, opts ...Option) *Server {
	s := &Server{
		table:       table,
		logger:      logging.Discard(),
		health:      func() error { return nil },
		corsOrigins: DefaultCORSOrigins,
		cacheTTL:    DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = newMetrics()
	s.cache = newCityCache(s.cacheTTL, s.metrics)
	s.handler = s.routes()
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(requestID, s.logRequests, s.metrics.instrument)

	r.HandleFunc("/cities", s.listCities).Methods(http.MethodGet)
	r.HandleFunc("/cities", s.createCity).Methods(http.MethodPost)
	r.HandleFunc("/cities/{id}", s.getCity).Methods(http.MethodGet)
	r.HandleFunc("/cities/{id}", s.deleteCity).Methods(http.MethodDelete)
	r.HandleFunc("/countries", s.listCountries).Methods(http.MethodGet)
	r.HandleFunc("/health", s.healthCheck).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(s.metrics.registry, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	var h http.Handler = r
	if s.rateLimit > 0 {
		burst := s.rateBurst
		if burst < 1 {
			burst = 1
		}
		h = rateLimit(rate.NewLimiter(rate.Limit(s.rateLimit), burst), h)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
		ExposedHeaders: []string{requestIDHeader},
	})
	return c.Handler(h)
}

// ListenAndServe listens on addr and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("api listening", slog.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.logger.Info("api shutting down")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
