package inspect

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/km-arc/go-registry/framework/container"
	gohttp "github.com/km-arc/go-registry/framework/http"
	"github.com/km-arc/go-registry/framework/routing"
)

// Server serves the inspection endpoints for one registry tree:
//
//	GET /healthz             liveness plus container count
//	GET /tree                the whole tree from the root
//	GET /namespaces/{path}   the subtree at path, e.g. /namespaces/filesystem/system
//	GET /metrics             Prometheus metrics, when a handler is configured
//
// Both tree endpoints accept ?depth=N.
type Server struct {
	root    *container.Container
	logger  *zap.Logger
	metrics http.Handler
	router  *routing.Router

	addr         string
	readTimeout  time.Duration
	writeTimeout time.Duration
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *zap.Logger) Option { return func(s *Server) { s.logger = l } }

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

func WithAddr(addr string) Option { return func(s *Server) { s.addr = addr } }

func WithTimeouts(read, write time.Duration) Option {
	return func(s *Server) {
		s.readTimeout = read
		s.writeTimeout = write
	}
}

// New builds the routes for root.
func New(root *container.Container, opts ...Option) *Server {
	s := &Server{
		root:         root,
		logger:       zap.NewNop(),
		addr:         ":8090",
		readTimeout:  5 * time.Second,
		writeTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := routing.New(s.logger)
	r.Get("/healthz", s.health)
	r.Get("/tree", s.tree)
	r.Get("/namespaces/*", s.namespace)
	if s.metrics != nil {
		r.Mount("/metrics", s.metrics)
	}
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		gohttp.NewResponse(w).NotFound()
	})
	s.router = r
	return s
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  s.readTimeout,
		WriteTimeout: s.writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("inspection server listening", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("inspection server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

// ── Handlers ──────────────────────────────────────────────────────────────────

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	gohttp.NewResponse(w).JSON(http.StatusOK, map[string]any{
		"status":     "ok",
		"root":       s.root.ID(),
		"containers": Snapshot(s.root, -1).Count(),
	})
}

func (s *Server) tree(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	depth, ok := parseDepth(r)
	if !ok {
		res.Error(http.StatusBadRequest, "depth must be an integer")
		return
	}
	res.Success(Snapshot(s.root, depth))
}

func (s *Server) namespace(w http.ResponseWriter, r *http.Request) {
	res := gohttp.NewResponse(w)
	depth, ok := parseDepth(r)
	if !ok {
		res.Error(http.StatusBadRequest, "depth must be an integer")
		return
	}
	ns, err := s.root.From("/" + routing.Param(r, "*"))
	if err != nil {
		res.Fail(err)
		return
	}
	res.Success(Snapshot(ns, depth))
}

func parseDepth(r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("depth")
	if raw == "" {
		return -1, true
	}
	d, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return d, true
}
