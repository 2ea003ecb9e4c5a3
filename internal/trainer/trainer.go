// Package trainer runs the coaching loop: validate a move, evaluate the
// resulting position, annotate it and remember the next suggestion.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/chess-coach/internal/annotate"
	"github.com/park285/chess-coach/internal/evalclient"
	"github.com/park285/chess-coach/internal/rules"
	"github.com/park285/chess-coach/internal/sessionstore"
)

// Evaluator scores a position. Any error is treated as "no evaluation".
type Evaluator interface {
	Evaluate(ctx context.Context, fen string) (*evalclient.Evaluation, error)
}

// Catalog supplies user-facing notices.
type Catalog interface {
	Text(key, fallback string, data any) string
}

type Kind string

const (
	KindInvalid Kind = "invalid"
	KindEval    Kind = "eval"
	KindError   Kind = "error"
	KindNotice  Kind = "notice"
)

// MoveInput is a move as entered on the board. Promotion may be empty.
type MoveInput struct {
	From      string
	To        string
	Promotion string
}

// Feedback is the outcome of one Play call.
type Feedback struct {
	Kind     Kind
	Message  string
	Move     *rules.Move
	Score    *int
	BestMove string
	PV       []string
	Intent   string
	Verdict  string
}

type Config struct {
	CoachedSide        rules.Side
	EvalTimeout        time.Duration
	PieceScoreMaxMoves int
}

type Trainer struct {
	eval      Evaluator
	annotator *annotate.Annotator
	store     sessionstore.Store
	catalog   Catalog
	cfg       Config
	logger    *zap.Logger
	now       func() time.Time
}

func New(eval Evaluator, store sessionstore.Store, catalog Catalog, cfg Config, logger *zap.Logger) (*Trainer, error) {
	if eval == nil {
		return nil, fmt.Errorf("evaluator is required")
	}
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if cfg.EvalTimeout <= 0 {
		cfg.EvalTimeout = 10 * time.Second
	}
	if cfg.PieceScoreMaxMoves <= 0 {
		cfg.PieceScoreMaxMoves = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Trainer{
		eval:      eval,
		annotator: annotate.New(annotate.WithCoachedSide(cfg.CoachedSide)),
		store:     store,
		catalog:   catalog,
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}, nil
}

// Open resumes the stored session for id. An empty, unknown or unreplayable
// id starts a new session under a fresh id.
func (t *Trainer) Open(ctx context.Context, id string) (s *Session, resumed bool, err error) {
	id = strings.TrimSpace(id)
	if id != "" {
		snap, err := t.store.Load(ctx, id)
		if err != nil {
			return nil, false, fmt.Errorf("load session: %w", err)
		}
		if snap != nil {
			restored, err := Restore(snap)
			if err == nil {
				t.logger.Info("session_resumed", zap.String("session_id", id), zap.Int("moves", len(snap.Moves)))
				return restored, true, nil
			}
			t.logger.Warn("session_restore_failed", zap.String("session_id", id), zap.Error(err))
		}
	}

	id = uuid.NewString()
	s = newSession(id, t.cfg.CoachedSide, t.now())
	if err := t.Save(ctx, s); err != nil {
		return nil, false, err
	}
	t.logger.Info("session_started", zap.String("session_id", id), zap.String("coached_side", s.CoachedSide.String()))
	return s, false, nil
}

func (t *Trainer) Save(ctx context.Context, s *Session) error {
	if err := t.store.Save(ctx, s.Snapshot()); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Reset starts a new game in s and returns the notice to show. The notice is
// returned even when saving fails since the in-memory game was reset.
func (t *Trainer) Reset(ctx context.Context, s *Session) (string, error) {
	s.reset(t.now())
	msg := t.text("notice.new_game", "New game started.", map[string]any{"Side": s.CoachedSide.String()})
	if err := t.Save(ctx, s); err != nil {
		return msg, err
	}
	return msg, nil
}

// Play applies in to the session's game and produces feedback. Only an
// illegal move leaves the session unchanged; an evaluation failure keeps the
// move and the pending suggestion as they were.
func (t *Trainer) Play(ctx context.Context, s *Session, in MoveInput) Feedback {
	promo, err := rules.ParsePromotion(in.Promotion)
	if err != nil {
		return t.invalid(s, in, err)
	}
	if promo == rules.NoPiece {
		promo = rules.Queen
	}
	mv, err := s.Game.Play(in.From, in.To, promo)
	if err != nil {
		return t.invalid(s, in, err)
	}
	s.UpdatedAt = t.now()
	lastSuggested := s.Context.Pending()
	t.logOpening(s, mv)

	result, err := t.evaluate(ctx, mv.After)
	if err != nil {
		t.logger.Warn("evaluate_failed",
			zap.String("session_id", s.ID),
			zap.String("move", mv.LAN),
			zap.Error(err),
		)
		return Feedback{
			Kind:    KindError,
			Message: t.text("notice.eval_unavailable", "Unable to evaluate move", nil),
			Move:    mv,
		}
	}

	score := result.Score
	fb := Feedback{
		Kind:     KindEval,
		Move:     mv,
		Score:    &score,
		BestMove: result.BestMove,
		PV:       result.PV,
		Verdict:  EvaluationText(&score, rules.FullMoveNumber(mv.After)),
	}
	fb.Message, _ = t.annotator.Summarize(annotate.Input{
		PreviousSuggestion: lastSuggested,
		Score:              &score,
		NextBestMove:       result.BestMove,
		History:            s.Game.History(),
	})
	if intent, ok := annotate.OpponentIntent(mv.After, result.PV); ok {
		fb.Intent = intent
	}

	if mv.Side != s.CoachedSide {
		s.Context.Store(result.BestMove)
	}

	t.logger.Debug("move_annotated",
		zap.String("session_id", s.ID),
		zap.String("move", mv.LAN),
		zap.String("side", mv.Side.String()),
		zap.Int("score", score),
		zap.String("best_move", result.BestMove),
		zap.String("pending", s.Context.Pending()),
	)
	return fb
}

// GameOver reports the outcome notice once the game has ended.
func (t *Trainer) GameOver(s *Session) (string, bool) {
	outcome := s.Game.Outcome()
	if outcome == "" {
		return "", false
	}
	label := t.text("outcome."+outcome, outcome, nil)
	return t.text("notice.game_over", "Game over: "+label+".", map[string]any{"Outcome": label}), true
}

func (t *Trainer) evaluate(ctx context.Context, pos rules.Position) (*evalclient.Evaluation, error) {
	evalCtx, cancel := context.WithTimeout(ctx, t.cfg.EvalTimeout)
	defer cancel()
	result, err := t.eval.Evaluate(evalCtx, string(pos))
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, errors.New("empty evaluation")
	}
	return result, nil
}

func (t *Trainer) invalid(s *Session, in MoveInput, err error) Feedback {
	t.logger.Debug("move_rejected",
		zap.String("session_id", s.ID),
		zap.String("from", in.From),
		zap.String("to", in.To),
		zap.String("promotion", in.Promotion),
		zap.Error(err),
	)
	return Feedback{Kind: KindInvalid, Message: t.text("notice.invalid_move", "Invalid move!", nil)}
}

func (t *Trainer) logOpening(s *Session, mv *rules.Move) {
	code, title, ok := s.Game.Opening()
	if !ok {
		return
	}
	t.logger.Info("chess opening label",
		zap.String("session_id", s.ID),
		zap.String("eco_code", code),
		zap.String("eco_title", title),
		zap.Int("ply", len(s.Game.History())),
		zap.String("move_uci", mv.LAN),
	)
}

func (t *Trainer) text(key, fallback string, data any) string {
	if t.catalog == nil {
		return fallback
	}
	return t.catalog.Text(key, fallback, data)
}
