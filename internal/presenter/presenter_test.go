package presenter

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/park285/chess-coach/internal/boardimg"
	"github.com/park285/chess-coach/internal/rules"
	"github.com/park285/chess-coach/internal/sessionstore"
	"github.com/park285/chess-coach/internal/trainer"
	"github.com/park285/chess-coach/pkg/coachdto"
)

func restore(t *testing.T, moves ...string) *trainer.Session {
	t.Helper()
	s, err := trainer.Restore(&sessionstore.Snapshot{
		ID:          "s-1",
		Moves:       moves,
		Pending:     "d2d4",
		CoachedSide: "white",
		UpdatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	return s
}

type recorder struct {
	frames []coachdto.ServerFrame
}

func (r *recorder) send(_ context.Context, f coachdto.ServerFrame) error {
	r.frames = append(r.frames, f)
	return nil
}

func TestToStatePayload(t *testing.T) {
	s := restore(t, "e2e4", "e7e5")
	got := ToStatePayload(s)
	want := &coachdto.StatePayload{
		SessionID:   "s-1",
		Turn:        "white",
		CoachedSide: "white",
		MovesUCI:    []string{"e2e4", "e7e5"},
		MovesSAN:    []string{"e4", "e5"},
		Pending:     "d2d4",
		UpdatedAt:   s.UpdatedAt,
	}
	if diff := cmp.Diff(want, got, cmpopts.IgnoreFields(coachdto.StatePayload{}, "FEN", "OpeningCode", "OpeningName")); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasPrefix(got.FEN, "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq ") {
		t.Fatalf("fen = %q", got.FEN)
	}
	if got.OpeningCode == "" {
		t.Fatalf("expected an opening label after 1.e4 e5")
	}
	if ToStatePayload(nil) != nil {
		t.Fatalf("nil session should map to nil")
	}
}

func TestToFeedbackPayload(t *testing.T) {
	mv, err := rules.Apply("rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 2", "e4", "d5", rules.NoPiece)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	score := 40
	got := ToFeedbackPayload(trainer.Feedback{
		Kind:     trainer.KindEval,
		Message:  "summary",
		Move:     mv,
		Score:    &score,
		BestMove: "d8d5",
		PV:       []string{"d8d5", "b1c3"},
		Verdict:  "Slight advantage",
	})
	score = 0
	want := &coachdto.FeedbackPayload{
		Kind:    "eval",
		Message: "summary",
		Move: &coachdto.MoveSummary{
			From: "e4", To: "d5", Side: "white", Piece: "pawn", Captured: "pawn", SAN: "exd5", UCI: "e4d5",
		},
		Score:    intPtr(40),
		BestMove: "d8d5",
		PV:       []string{"d8d5", "b1c3"},
		Verdict:  "Slight advantage",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("feedback mismatch (-want +got):\n%s", diff)
	}
}

func TestPresenter_FeedbackWithImage(t *testing.T) {
	s := restore(t, "e2e4")
	rec := &recorder{}
	var gotOpts boardimg.Options
	render := func(_ context.Context, pos rules.Position, opts boardimg.Options) ([]byte, error) {
		gotOpts = opts
		return []byte("png"), nil
	}
	p := New(rec.send, WithBoardImages(render))

	if err := p.Feedback(context.Background(), s, trainer.Feedback{Kind: trainer.KindEval, Message: "ok"}); err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if len(rec.frames) != 1 {
		t.Fatalf("frames = %d", len(rec.frames))
	}
	f := rec.frames[0]
	if f.Type != coachdto.FrameFeedback || f.Feedback == nil || f.Feedback.State == nil {
		t.Fatalf("unexpected frame %+v", f)
	}
	if f.Feedback.State.ImagePNG != base64.StdEncoding.EncodeToString([]byte("png")) {
		t.Fatalf("image = %q", f.Feedback.State.ImagePNG)
	}
	if diff := cmp.Diff(&boardimg.Highlight{From: "e2", To: "e4"}, gotOpts.LastMove); diff != "" {
		t.Fatalf("highlight mismatch:\n%s", diff)
	}
}

func TestPresenter_InvalidHasNoState(t *testing.T) {
	rec := &recorder{}
	p := New(rec.send)
	if err := p.Feedback(context.Background(), restore(t), trainer.Feedback{Kind: trainer.KindInvalid, Message: "Invalid move!"}); err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if rec.frames[0].Feedback.State != nil {
		t.Fatalf("invalid move should not carry state")
	}
}

func TestPresenter_RenderFailureKeepsFrame(t *testing.T) {
	rec := &recorder{}
	p := New(rec.send, WithBoardImages(func(context.Context, rules.Position, boardimg.Options) ([]byte, error) {
		return nil, errors.New("boom")
	}))
	if err := p.Scores(context.Background(), restore(t), map[string]int{"g1": 12}); err != nil {
		t.Fatalf("Scores: %v", err)
	}
	f := rec.frames[0]
	if f.Type != coachdto.FrameScores || f.Scores.ImagePNG != "" {
		t.Fatalf("unexpected frame %+v", f)
	}
	if diff := cmp.Diff(map[string]int{"g1": 12}, f.Scores.Scores); diff != "" {
		t.Fatalf("scores mismatch:\n%s", diff)
	}
}

func TestPresenter_ErrorAndNilScores(t *testing.T) {
	rec := &recorder{}
	p := New(rec.send)
	if err := p.Error(context.Background(), "bad_frame", "nope", false); err != nil {
		t.Fatalf("Error: %v", err)
	}
	if err := p.Scores(context.Background(), restore(t), nil); err != nil {
		t.Fatalf("Scores: %v", err)
	}
	if got := rec.frames[0].Error; got == nil || got.Code != "bad_frame" || got.Message != "nope" {
		t.Fatalf("error frame = %+v", rec.frames[0])
	}
	if rec.frames[1].Scores.Scores == nil {
		t.Fatalf("scores should never be null")
	}
}

func intPtr(v int) *int { return &v }
