// Package engine evaluates positions with a pooled UCI engine.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/chess-coach/internal/engine/uci"
	"github.com/park285/chess-coach/internal/rules"
)

var (
	ErrInvalidPosition   = errors.New("invalid position")
	ErrEngineUnavailable = errors.New("chess engine unavailable")
	ErrEngineTimeout     = errors.New("chess engine timeout")
)

// Evaluation is a search result with the score from white's point of view.
type Evaluation struct {
	Score    int
	Mate     int
	BestMove string
	PV       []string
	Depth    int
	Duration time.Duration
}

type Analyzer struct {
	pool   *uci.Pool
	limits uci.Limits
	logger *zap.Logger
}

func NewAnalyzer(pool *uci.Pool, limits uci.Limits, logger *zap.Logger) (*Analyzer, error) {
	if pool == nil {
		return nil, errors.New("engine pool is required")
	}
	if limits.Depth <= 0 && limits.MoveTimeMillis <= 0 && limits.NodeCap <= 0 {
		return nil, uci.ErrNoLimits
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{pool: pool, limits: limits, logger: logger}, nil
}

// Evaluate searches fen and reports the best line. Terminal positions yield
// an empty best move.
func (a *Analyzer) Evaluate(ctx context.Context, fen string) (Evaluation, error) {
	start := time.Now()
	pos := rules.Position(strings.TrimSpace(fen))
	turn, err := rules.Turn(pos)
	if err != nil {
		return Evaluation{}, fmt.Errorf("%w: %v", ErrInvalidPosition, err)
	}

	session, err := a.pool.Acquire(ctx)
	if err != nil {
		return Evaluation{}, mapEngineError(err)
	}
	var releaseErr error
	defer func() {
		a.pool.Release(session, releaseErr)
	}()

	if err := session.NewGame(ctx); err != nil {
		releaseErr = err
		return Evaluation{}, mapEngineError(err)
	}
	resp, err := session.Search(ctx, uci.SearchRequest{FEN: string(pos), Limits: a.limits})
	if err != nil {
		releaseErr = err
		return Evaluation{}, mapEngineError(err)
	}

	eval := Evaluation{BestMove: strings.ToLower(resp.BestMove)}
	if best, ok := resp.Best(); ok {
		eval.Score = best.EvalCP
		eval.Mate = best.Mate
		eval.Depth = best.Depth
		eval.PV = best.Principal
		if eval.BestMove == "" {
			eval.BestMove = best.Move
		}
	}
	if eval.BestMove == "" {
		eval.Score = terminalScore(pos)
	} else if turn == rules.Black {
		eval.Score = -eval.Score
		eval.Mate = -eval.Mate
	}
	eval.Duration = time.Since(start)

	a.logger.Debug("engine_evaluate",
		zap.String("fen", string(pos)),
		zap.Int("score", eval.Score),
		zap.String("best", eval.BestMove),
		zap.Int("depth", eval.Depth),
		zap.Duration("elapsed", eval.Duration),
	)
	return eval, nil
}

func (a *Analyzer) Close() error {
	return a.pool.Close()
}

func terminalScore(pos rules.Position) int {
	g, err := rules.NewGameFrom(pos)
	if err != nil {
		return 0
	}
	switch g.Outcome() {
	case "white":
		return uci.MateScore
	case "black":
		return -uci.MateScore
	default:
		return 0
	}
}

func mapEngineError(err error) error {
	if err == nil {
		return ErrEngineUnavailable
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return fmt.Errorf("%w: %v", ErrEngineTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrEngineUnavailable, err)
}
