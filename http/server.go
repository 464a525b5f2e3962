package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/fwojciec/relay"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

const (
	defaultAddr         = ":5003"
	defaultMaxBodyBytes = 1 << 20
	readHeaderTimeout   = 10 * time.Second
)

// Server is the HTTP front of the relay. It is safe for concurrent use;
// every request blocks in its own Deliver call.
type Server struct {
	deliverer    relay.Deliverer
	addr         string
	logger       zerolog.Logger
	metrics      http.Handler
	strict       bool
	maxBodyBytes int64

	router chi.Router
	server *http.Server
}

// Option configures a [Server].
type Option func(*Server)

// WithAddr sets the listen address. Default is :5003.
func WithAddr(addr string) Option {
	return func(s *Server) { s.addr = addr }
}

// WithLogger sets the logger used for access and delivery logs.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithStrictErrors makes failed deliveries answer 502 with the error text
// instead of 200 with the error text as the response.
func WithStrictErrors(strict bool) Option {
	return func(s *Server) { s.strict = strict }
}

// WithMaxBodyBytes limits the size of a /chat request body.
func WithMaxBodyBytes(n int64) Option {
	return func(s *Server) { s.maxBodyBytes = n }
}

// NewServer creates a Server that answers chat requests through d.
func NewServer(d relay.Deliverer, opts ...Option) *Server {
	s := &Server{
		deliverer:    d,
		addr:         defaultAddr,
		logger:       zerolog.Nop(),
		maxBodyBytes: defaultMaxBodyBytes,
	}
	for _, o := range opts {
		o(s)
	}
	s.router = s.routes()
	s.server = &http.Server{
		Addr:              s.addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(s.requestID)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)

	r.Post("/chat", s.handleChat)
	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// Handler returns the routed handler, for use with httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.addr
}

// ListenAndServe listens on the configured address and serves until
// Shutdown. It returns nil after a graceful shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown. It returns nil after a
// graceful shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("listening")
	if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx is done.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
