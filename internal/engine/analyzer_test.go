package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/park285/chess-coach/internal/engine/uci"
	"github.com/park285/chess-coach/internal/engine/uci/ucitest"
)

func newTestAnalyzer(t *testing.T, bin string) *Analyzer {
	t.Helper()
	pool, err := uci.NewPool(uci.PoolConfig{BinaryPath: bin, Capacity: 1, Options: uci.Options{Threads: 1, HashMB: 16, MultiPV: 1}})
	if err != nil {
		t.Fatalf("NewPool: %v", err)
	}
	a, err := NewAnalyzer(pool, uci.Limits{Depth: 12}, nil)
	if err != nil {
		t.Fatalf("NewAnalyzer: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestAnalyzer_WhiteRelativeScore(t *testing.T) {
	a := newTestAnalyzer(t, ucitest.Engine(t))
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got, err := a.Evaluate(ctx, "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	want := Evaluation{Score: -34, BestMove: "e7e5", PV: []string{"e7e5", "g1f3", "b8c6"}, Depth: 12}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(Evaluation{}, "Duration")); diff != "" {
		t.Fatalf("evaluation mismatch (-want +got):\n%s", diff)
	}

	white, err := a.Evaluate(ctx, "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	if err != nil {
		t.Fatalf("Evaluate white: %v", err)
	}
	if white.Score != 34 {
		t.Fatalf("white-to-move score = %d", white.Score)
	}
}

func TestAnalyzer_InvalidPosition(t *testing.T) {
	a := newTestAnalyzer(t, ucitest.Engine(t))
	if _, err := a.Evaluate(context.Background(), "not a position"); !errors.Is(err, ErrInvalidPosition) {
		t.Fatalf("err = %v", err)
	}
}

func TestAnalyzer_Timeout(t *testing.T) {
	a := newTestAnalyzer(t, ucitest.Silent(t))
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if _, err := a.Evaluate(ctx, "8/8/8/8/8/8/k7/7K w - - 0 1"); !errors.Is(err, ErrEngineTimeout) {
		t.Fatalf("err = %v", err)
	}
}

func TestNewAnalyzer_RequiresLimits(t *testing.T) {
	if _, err := NewAnalyzer(nil, uci.Limits{Depth: 1}, nil); err == nil {
		t.Fatalf("expected error for nil pool")
	}
}

func TestMapEngineError(t *testing.T) {
	if err := mapEngineError(context.DeadlineExceeded); !errors.Is(err, ErrEngineTimeout) {
		t.Fatalf("deadline mapped to %v", err)
	}
	if err := mapEngineError(errors.New("read line: EOF")); !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("eof mapped to %v", err)
	}
	if err := mapEngineError(nil); !errors.Is(err, ErrEngineUnavailable) {
		t.Fatalf("nil mapped to %v", err)
	}
}
