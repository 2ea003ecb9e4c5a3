package presenter

import (
	"github.com/park285/chess-coach/internal/rules"
	"github.com/park285/chess-coach/internal/trainer"
	"github.com/park285/chess-coach/pkg/coachdto"
)

func ToStatePayload(s *trainer.Session) *coachdto.StatePayload {
	if s == nil {
		return nil
	}
	history := s.Game.History()
	san := make([]string, 0, len(history))
	for _, mv := range history {
		san = append(san, mv.SAN)
	}
	state := &coachdto.StatePayload{
		SessionID:   s.ID,
		FEN:         string(s.Game.Position()),
		Turn:        s.Game.Turn().String(),
		CoachedSide: s.CoachedSide.String(),
		MovesUCI:    s.Game.MovesLAN(),
		MovesSAN:    san,
		Pending:     s.Context.Pending(),
		Outcome:     s.Game.Outcome(),
		UpdatedAt:   s.UpdatedAt,
	}
	if code, title, ok := s.Game.Opening(); ok {
		state.OpeningCode = code
		state.OpeningName = title
	}
	return state
}

func ToMoveSummary(m *rules.Move) *coachdto.MoveSummary {
	if m == nil {
		return nil
	}
	out := &coachdto.MoveSummary{
		From:  m.From,
		To:    m.To,
		Side:  m.Side.String(),
		Piece: m.Piece.Name(),
		SAN:   m.SAN,
		UCI:   m.LAN,
	}
	if m.Captured != rules.NoPiece {
		out.Captured = m.Captured.Name()
	}
	if m.Promotion != rules.NoPiece {
		out.Promotion = m.Promotion.Letter()
	}
	return out
}

func ToFeedbackPayload(fb trainer.Feedback) *coachdto.FeedbackPayload {
	out := &coachdto.FeedbackPayload{
		Kind:     string(fb.Kind),
		Message:  fb.Message,
		Move:     ToMoveSummary(fb.Move),
		BestMove: fb.BestMove,
		Intent:   fb.Intent,
		Verdict:  fb.Verdict,
	}
	if fb.Score != nil {
		score := *fb.Score
		out.Score = &score
	}
	if len(fb.PV) > 0 {
		out.PV = append([]string(nil), fb.PV...)
	}
	return out
}
