package server

import (
	"net"
	"sync"

	"github.com/vyrodovalexey/minapi/internal/observability"
	"github.com/vyrodovalexey/minapi/internal/util"
)

// Pool is a fixed set of workers consuming accepted connections from a
// shared channel. The channel is unbuffered so the accept loop blocks
// when every worker is busy, which is the only backpressure mechanism.
type Pool struct {
	size    int
	conns   chan net.Conn
	handle  func(net.Conn)
	logger  observability.Logger
	wg      sync.WaitGroup
	started bool
	mu      sync.Mutex
}

// NewPool creates a pool of size workers that will run handle for each
// submitted connection. Size must be at least 1.
func NewPool(size int, handle func(net.Conn), logger observability.Logger) (*Pool, error) {
	if size < 1 {
		return nil, util.NewConfigError("server.workers", "must be at least 1")
	}
	if handle == nil {
		return nil, util.NewConfigError("server.workers", "connection handler must not be nil")
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Pool{
		size:   size,
		conns:  make(chan net.Conn),
		handle: handle,
		logger: logger,
	}, nil
}

// Start launches the workers. Calling Start twice is a no-op.
func (p *Pool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return
	}
	p.started = true
	for i := 0; i < p.size; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("worker pool started", observability.Int("workers", p.size))
}

// Submit hands a connection to the next free worker, blocking until
// one is available. Submit must not be called after Stop.
func (p *Pool) Submit(conn net.Conn) {
	p.conns <- conn
}

// Stop closes the intake channel and waits for every worker to finish
// the connection it is currently servicing.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.started {
		p.mu.Unlock()
		return
	}
	p.started = false
	p.mu.Unlock()

	close(p.conns)
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for conn := range p.conns {
		p.logger.Debug("worker picked up connection",
			observability.Int("worker", id),
			observability.String("remote", conn.RemoteAddr().String()),
		)
		p.handle(conn)
	}
}
