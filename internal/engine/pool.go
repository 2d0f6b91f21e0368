package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/alexvogt/chesscoach/internal/logger"
)

// ErrPoolClosed is returned by Acquire after Close.
var ErrPoolClosed = errors.New("engine pool closed")

// Pool manages a fixed set of reusable engine processes. Engines are the
// scarce resource of bulk analysis: each handles one position at a time and
// must be checked out and returned, never shared.
type Pool struct {
	path    string
	size    int
	engines chan *Engine
	mu      sync.Mutex
	closed  bool
	log     *logger.Logger
}

// NewPool creates a pre-warmed pool with the specified number of engines.
func NewPool(path string, size int) (*Pool, error) {
	if size <= 0 {
		size = 2
	}
	log := logger.Default().WithPrefix("engine-pool")

	pool := &Pool{
		path:    path,
		size:    size,
		engines: make(chan *Engine, size),
		log:     log,
	}

	log.Info("initializing engine pool with %d engines", size)
	for i := 0; i < size; i++ {
		e, err := New(path)
		if err != nil {
			pool.Close()
			return nil, err
		}
		pool.engines <- e
	}
	log.Info("engine pool ready")
	return pool, nil
}

// Acquire checks an engine out of the pool, blocking until one is free or
// the context is cancelled.
func (p *Pool) Acquire(ctx context.Context) (*Engine, error) {
	select {
	case e, ok := <-p.engines:
		if !ok {
			return nil, ErrPoolClosed
		}
		return e, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns an engine to the pool. A dead engine is closed and
// replaced with a fresh process so the pool never shrinks.
func (p *Pool) Release(e *Engine) {
	if e == nil {
		return
	}
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		e.Close()
		return
	}

	if !e.Healthy() {
		p.log.Warn("released engine is dead, restarting")
		e.Close()
		fresh, err := New(p.path)
		if err != nil {
			p.log.Error("failed to restart engine: %v", err)
			return
		}
		e = fresh
	}

	select {
	case p.engines <- e:
	default:
		e.Close()
	}
}

// Evaluate acquires an engine, evaluates, and releases it back.
func (p *Pool) Evaluate(ctx context.Context, fen string, budget Budget) (EvalResult, error) {
	e, err := p.Acquire(ctx)
	if err != nil {
		return EvalResult{}, err
	}
	defer p.Release(e)

	return e.Evaluate(ctx, fen, budget)
}

// Close shuts down all engines in the pool.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	p.log.Info("closing engine pool")
	close(p.engines)
	for e := range p.engines {
		e.Close()
	}
}

// Available returns how many engines are currently idle.
func (p *Pool) Available() int {
	return len(p.engines)
}
