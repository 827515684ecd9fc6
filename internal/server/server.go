package server

import (
	"context"
	"errors"
	"net"
	"sync/atomic"

	"github.com/vyrodovalexey/minapi/internal/config"
	"github.com/vyrodovalexey/minapi/internal/observability"
	"github.com/vyrodovalexey/minapi/internal/router"
	"github.com/vyrodovalexey/minapi/internal/util"
)

// Server owns the TCP listener, the accept loop and the worker pool.
// The route table must be fully populated before Start; it is never
// mutated afterwards. A Server is single-use: once stopped it cannot
// be started again, because the worker pool's intake channel is
// closed for good.
type Server struct {
	cfg     config.Server
	table   *router.Table
	logger  observability.Logger
	metrics *observability.Metrics

	listener net.Listener
	pool     *Pool
	running  atomic.Bool
	stopped  atomic.Bool
	done     chan struct{}
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger observability.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// NewServer creates a server over the given route table.
func NewServer(cfg config.Server, table *router.Table, opts ...Option) (*Server, error) {
	if table == nil {
		return nil, util.NewConfigError("server", "route table must not be nil")
	}
	workers := cfg.Workers
	if workers == 0 {
		workers = config.DefaultWorkers
	}
	if workers < 1 {
		return nil, util.NewConfigError("server.workers", "must be at least 1")
	}
	cfg.Workers = workers

	s := &Server{
		cfg:    cfg,
		table:  table,
		logger: observability.NopLogger(),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	pool, err := NewPool(workers, s.serviceConnection, s.logger)
	if err != nil {
		return nil, err
	}
	s.pool = pool
	return s, nil
}

// Start binds the TCP listener and launches the workers and the accept
// loop. It returns once the listener is bound; request handling runs
// in the background until Stop.
func (s *Server) Start(ctx context.Context) error {
	if s.stopped.Load() {
		return errors.New("server already stopped, create a new one")
	}
	if !s.running.CompareAndSwap(false, true) {
		return errors.New("server already started")
	}

	lc := net.ListenConfig{}
	listener, err := lc.Listen(ctx, "tcp", s.cfg.Address())
	if err != nil {
		s.running.Store(false)
		return err
	}
	s.listener = listener

	s.pool.Start()
	go s.acceptLoop()

	s.logger.Info("server listening",
		observability.String("address", listener.Addr().String()),
		observability.Int("workers", s.cfg.Workers),
	)
	return nil
}

// Addr returns the bound listener address, or nil before Start. Useful
// when the configured port is 0 and the kernel picked one.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// IsRunning reports whether the server has been started and not yet
// stopped.
func (s *Server) IsRunning() bool {
	return s.running.Load()
}

// Stop closes the listener, lets the accept loop drain, and waits for
// in-flight connections up to the context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.stopped.Store(true)
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}

	if err := s.listener.Close(); err != nil {
		s.logger.Warn("closing listener", observability.Error(err))
	}
	<-s.done

	stopped := make(chan struct{})
	go func() {
		s.pool.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
		s.logger.Info("server stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Server) acceptLoop() {
	defer close(s.done)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			s.logger.Warn("accept failed", observability.Error(err))
			continue
		}
		if s.metrics != nil {
			s.metrics.ConnectionAccepted()
		}
		s.pool.Submit(conn)
	}
}
