package uci

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

var (
	ErrPoolClosed     = errors.New("engine pool closed")
	errPoolAtCapacity = errors.New("engine pool at capacity")
)

type PoolConfig struct {
	BinaryPath string
	Capacity   int
	Options    Options
	Logger     *zap.Logger
}

// Pool keeps up to Capacity warm engine processes sharing one option set.
type Pool struct {
	binaryPath string
	opt        Options
	capacity   int
	logger     *zap.Logger

	mu       sync.Mutex
	total    int
	closed   bool
	idle     chan *Session
	borrowed map[*Session]struct{}
	// freed is closed and replaced whenever a slot opens up.
	freed chan struct{}
}

func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.BinaryPath == "" {
		return nil, fmt.Errorf("binary path required")
	}
	if _, err := os.Stat(cfg.BinaryPath); err != nil {
		return nil, fmt.Errorf("engine binary check: %w", err)
	}
	if err := validateOptions(cfg.Options); err != nil {
		return nil, err
	}

	capacity := cfg.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pool{
		binaryPath: cfg.BinaryPath,
		opt:        cfg.Options,
		capacity:   capacity,
		logger:     logger,
		idle:       make(chan *Session, capacity),
		borrowed:   make(map[*Session]struct{}),
		freed:      make(chan struct{}),
	}, nil
}

// Acquire returns an idle session, starts a new one while under capacity,
// or waits for a release or a freed slot.
func (p *Pool) Acquire(ctx context.Context) (*Session, error) {
	for {
		if p.isClosed() {
			return nil, ErrPoolClosed
		}
		select {
		case session := <-p.idle:
			if s, ok := p.revive(ctx, session); ok {
				return s, nil
			}
			continue
		default:
		}

		session, freed, err := p.create(ctx)
		if err == nil {
			p.track(session)
			return session, nil
		}
		if !errors.Is(err, errPoolAtCapacity) {
			return nil, err
		}

		select {
		case session := <-p.idle:
			if s, ok := p.revive(ctx, session); ok {
				return s, nil
			}
		case <-freed:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Release hands a session back. A non-nil err marks the session as broken
// and it is closed instead of reused.
func (p *Pool) Release(session *Session, err error) {
	if session == nil {
		return
	}

	p.mu.Lock()
	_, ok := p.borrowed[session]
	delete(p.borrowed, session)
	closed := p.closed
	p.mu.Unlock()

	if !ok {
		_ = session.Close()
		return
	}
	if err != nil || closed {
		if err != nil {
			p.logger.Debug("uci_session_discarded", zap.Error(err))
		}
		p.discard(session)
		return
	}

	select {
	case p.idle <- session:
	default:
		p.discard(session)
	}
}

// Close stops idle sessions. Borrowed sessions are stopped on release.
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.signalFreedLocked()
	p.mu.Unlock()

	var errs []error
	for {
		select {
		case session := <-p.idle:
			if session == nil {
				continue
			}
			if err := session.Close(); err != nil {
				errs = append(errs, err)
			}
			p.decrement()
		default:
			return errors.Join(errs...)
		}
	}
}

// Stats reports live and idle process counts.
func (p *Pool) Stats() (total, idle int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.total, len(p.idle)
}

func (p *Pool) revive(ctx context.Context, session *Session) (*Session, bool) {
	if session == nil {
		return nil, false
	}
	if err := session.EnsureReady(ctx); err != nil {
		p.logger.Warn("uci_session_stale", zap.Error(err))
		p.discard(session)
		return nil, false
	}
	p.track(session)
	return session, true
}

// create starts a session while under capacity. At capacity it returns
// errPoolAtCapacity and a channel that is closed once a slot frees up.
func (p *Pool) create(ctx context.Context) (*Session, <-chan struct{}, error) {
	p.mu.Lock()
	if p.total >= p.capacity {
		freed := p.freed
		p.mu.Unlock()
		return nil, freed, errPoolAtCapacity
	}
	p.total++
	p.mu.Unlock()

	session, err := NewSession(ctx, p.binaryPath, p.opt, p.logger)
	if err != nil {
		p.decrement()
		return nil, nil, err
	}
	p.logger.Info("uci_session_started", zap.String("binary", p.binaryPath))
	return session, nil, nil
}

func (p *Pool) track(session *Session) {
	p.mu.Lock()
	p.borrowed[session] = struct{}{}
	p.mu.Unlock()
}

func (p *Pool) discard(session *Session) {
	_ = session.Close()
	p.decrement()
}

func (p *Pool) decrement() {
	p.mu.Lock()
	if p.total > 0 {
		p.total--
	}
	p.signalFreedLocked()
	p.mu.Unlock()
}

func (p *Pool) signalFreedLocked() {
	close(p.freed)
	p.freed = make(chan struct{})
}

func (p *Pool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// DefaultCapacity sizes the pool from the CPU count, between 2 and 4.
func DefaultCapacity() int {
	return min(max(runtime.NumCPU(), 2), 4)
}
