// Package presenter turns trainer results into wire frames and hands them to
// the transport.
package presenter

import (
	"context"
	"encoding/base64"
	"maps"

	"go.uber.org/zap"

	"github.com/park285/chess-coach/internal/boardimg"
	"github.com/park285/chess-coach/internal/rules"
	"github.com/park285/chess-coach/internal/trainer"
	"github.com/park285/chess-coach/pkg/coachdto"
)

// SendFunc writes one frame to the client.
type SendFunc func(ctx context.Context, frame coachdto.ServerFrame) error

// RenderFunc draws a board image, normally boardimg.Render.
type RenderFunc func(ctx context.Context, pos rules.Position, opts boardimg.Options) ([]byte, error)

type Option func(*Presenter)

// WithBoardImages attaches a PNG of the board to state and scores frames.
func WithBoardImages(render RenderFunc) Option {
	return func(p *Presenter) { p.render = render }
}

func WithLogger(logger *zap.Logger) Option {
	return func(p *Presenter) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// Presenter delivers frames for a single connection.
type Presenter struct {
	send   SendFunc
	render RenderFunc
	logger *zap.Logger
}

func New(send SendFunc, opts ...Option) *Presenter {
	p := &Presenter{send: send, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Feedback sends the result of a move together with the updated state.
// Invalid moves carry no state since nothing changed.
func (p *Presenter) Feedback(ctx context.Context, s *trainer.Session, fb trainer.Feedback) error {
	payload := ToFeedbackPayload(fb)
	if fb.Kind != trainer.KindInvalid {
		payload.State = p.state(ctx, s)
	}
	return p.deliver(ctx, coachdto.ServerFrame{Type: coachdto.FrameFeedback, Feedback: payload})
}

// Notice sends a plain message without a move, e.g. after a reset.
func (p *Presenter) Notice(ctx context.Context, s *trainer.Session, message string) error {
	return p.deliver(ctx, coachdto.ServerFrame{
		Type: coachdto.FrameFeedback,
		Feedback: &coachdto.FeedbackPayload{
			Kind:    string(trainer.KindNotice),
			Message: message,
			State:   p.state(ctx, s),
		},
	})
}

func (p *Presenter) State(ctx context.Context, s *trainer.Session) error {
	return p.deliver(ctx, coachdto.ServerFrame{Type: coachdto.FrameState, State: p.state(ctx, s)})
}

func (p *Presenter) Scores(ctx context.Context, s *trainer.Session, scores map[string]int) error {
	payload := &coachdto.ScoresPayload{Scores: maps.Clone(scores)}
	if payload.Scores == nil {
		payload.Scores = map[string]int{}
	}
	payload.ImagePNG = p.image(ctx, s, scores)
	return p.deliver(ctx, coachdto.ServerFrame{Type: coachdto.FrameScores, Scores: payload})
}

func (p *Presenter) Error(ctx context.Context, code, message string, retryable bool) error {
	return p.deliver(ctx, coachdto.ServerFrame{
		Type:  coachdto.FrameError,
		Error: &coachdto.DomainError{Code: code, Message: message, Retryable: retryable},
	})
}

func (p *Presenter) state(ctx context.Context, s *trainer.Session) *coachdto.StatePayload {
	state := ToStatePayload(s)
	if state != nil {
		state.ImagePNG = p.image(ctx, s, nil)
	}
	return state
}

// image renders the board as base64 PNG. Rendering failures drop the image
// rather than the frame.
func (p *Presenter) image(ctx context.Context, s *trainer.Session, scores map[string]int) string {
	if p.render == nil || s == nil {
		return ""
	}
	opts := boardimg.Options{Scores: scores}
	if last, ok := s.Game.LastMove(); ok {
		opts.LastMove = &boardimg.Highlight{From: last.From, To: last.To}
	}
	data, err := p.render(ctx, s.Game.Position(), opts)
	if err != nil {
		p.logger.Warn("board_render_failed", zap.String("session_id", s.ID), zap.Error(err))
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

func (p *Presenter) deliver(ctx context.Context, frame coachdto.ServerFrame) error {
	if p == nil || p.send == nil {
		return nil
	}
	return p.send(ctx, frame)
}
