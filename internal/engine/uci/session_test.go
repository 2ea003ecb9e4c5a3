package uci_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/park285/chess-coach/internal/engine/uci"
	"github.com/park285/chess-coach/internal/engine/uci/ucitest"
)

var testOptions = uci.Options{Threads: 1, HashMB: 16, MultiPV: 1}

func TestSession_Search(t *testing.T) {
	bin := ucitest.Engine(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s, err := uci.NewSession(ctx, bin, testOptions, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.NewGame(ctx); err != nil {
		t.Fatalf("NewGame: %v", err)
	}
	resp, err := s.Search(ctx, uci.SearchRequest{
		FEN:    "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1",
		Limits: uci.Limits{Depth: 12},
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	want := uci.SearchResponse{
		Candidates: []uci.Candidate{{Move: "e7e5", EvalCP: 34, Depth: 12, Principal: []string{"e7e5", "g1f3", "b8c6"}}},
		BestMove:   "e7e5",
		Ponder:     "g1f3",
	}
	if diff := cmp.Diff(want, resp); diff != "" {
		t.Fatalf("search mismatch (-want +got):\n%s", diff)
	}
}

func TestSession_SearchHonoursContext(t *testing.T) {
	bin := ucitest.Silent(t)
	s, err := uci.NewSession(context.Background(), bin, testOptions, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	_, err = s.Search(ctx, uci.SearchRequest{Limits: uci.Limits{Depth: 5}})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want deadline exceeded", err)
	}
}

func TestSession_RequiresLimits(t *testing.T) {
	bin := ucitest.Engine(t)
	s, err := uci.NewSession(context.Background(), bin, testOptions, nil)
	if err != nil {
		t.Fatalf("NewSession: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if _, err := s.Search(context.Background(), uci.SearchRequest{}); !errors.Is(err, uci.ErrNoLimits) {
		t.Fatalf("err = %v", err)
	}
}

func TestNewSession_RejectsBadOptions(t *testing.T) {
	if _, err := uci.NewSession(context.Background(), "/nonexistent", uci.Options{HashMB: 0, MultiPV: 1}, nil); err == nil {
		t.Fatalf("expected error for zero hash")
	}
}

func TestPool_ReuseAndDiscard(t *testing.T) {
	bin := ucitest.Engine(t)
	pool, err := uci.NewPool(uci.PoolConfig{BinaryPath: bin, Capacity: 1, Options: testOptions})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	waitCtx, waitCancel := context.WithTimeout(ctx, 100*time.Millisecond)
	if _, err := pool.Acquire(waitCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("second acquire at capacity: %v", err)
	}
	waitCancel()

	pool.Release(first, nil)
	second, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire after release: %v", err)
	}
	if second != first {
		t.Fatalf("expected idle session reuse")
	}

	pool.Release(second, errors.New("broken"))
	if total, idle := pool.Stats(); total != 0 || idle != 0 {
		t.Fatalf("stats after discard = %d/%d", total, idle)
	}
}

func TestPool_Closed(t *testing.T) {
	bin := ucitest.Engine(t)
	pool, err := uci.NewPool(uci.PoolConfig{BinaryPath: bin, Capacity: 1, Options: testOptions})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	if err := pool.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := pool.Acquire(context.Background()); !errors.Is(err, uci.ErrPoolClosed) {
		t.Fatalf("err = %v", err)
	}
}

func TestNewPool_MissingBinary(t *testing.T) {
	if _, err := uci.NewPool(uci.PoolConfig{BinaryPath: "/definitely/not/here", Options: testOptions}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestPool_WaiterWakesWhenBrokenSessionDiscarded(t *testing.T) {
	bin := ucitest.Engine(t)
	pool, err := uci.NewPool(uci.PoolConfig{BinaryPath: bin, Capacity: 1, Options: testOptions})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	t.Cleanup(func() { _ = pool.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	held, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	type result struct {
		session *uci.Session
		err     error
	}
	done := make(chan result, 1)
	go func() {
		s, err := pool.Acquire(ctx)
		done <- result{s, err}
	}()

	time.Sleep(50 * time.Millisecond)
	start := time.Now()
	pool.Release(held, errors.New("engine crashed"))

	select {
	case r := <-done:
		if r.err != nil {
			t.Fatalf("waiter: %v", r.err)
		}
		if r.session == held {
			t.Fatalf("waiter got the discarded session")
		}
		if waited := time.Since(start); waited > 2*time.Second {
			t.Fatalf("waiter woke after %v", waited)
		}
		pool.Release(r.session, nil)
	case <-time.After(3 * time.Second):
		t.Fatalf("waiter still blocked after the slot was freed")
	}
}

func TestPool_CloseWakesWaiter(t *testing.T) {
	bin := ucitest.Engine(t)
	pool, err := uci.NewPool(uci.PoolConfig{BinaryPath: bin, Capacity: 1, Options: testOptions})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	held, err := pool.Acquire(ctx)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}

	done := make(chan error, 1)
	go func() {
		_, err := pool.Acquire(ctx)
		done <- err
	}()
	time.Sleep(50 * time.Millisecond)
	if err := pool.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	select {
	case err := <-done:
		if !errors.Is(err, uci.ErrPoolClosed) {
			t.Fatalf("waiter err = %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("waiter not released by Close")
	}
	pool.Release(held, nil)
}
