package trainer

import (
	"fmt"
	"strings"
	"time"

	"github.com/park285/chess-coach/internal/rules"
	"github.com/park285/chess-coach/internal/sessionstore"
)

// AnnotationContext holds the best move suggested after the opponent's last
// move, waiting to be compared with the coached side's reply.
type AnnotationContext struct {
	pending string
}

func (c *AnnotationContext) Pending() string {
	return c.pending
}

// Store replaces the pending suggestion; an empty move clears it.
func (c *AnnotationContext) Store(move string) {
	c.pending = strings.ToLower(strings.TrimSpace(move))
}

func (c *AnnotationContext) Reset() {
	c.pending = ""
}

// Session is one game between a coached player and the board. It is owned by
// a single connection and is not safe for concurrent use.
type Session struct {
	ID          string
	Game        *rules.Game
	Context     AnnotationContext
	CoachedSide rules.Side
	StartedAt   time.Time
	UpdatedAt   time.Time
}

func newSession(id string, coached rules.Side, now time.Time) *Session {
	return &Session{
		ID:          id,
		Game:        rules.NewGame(),
		CoachedSide: coached,
		StartedAt:   now,
		UpdatedAt:   now,
	}
}

// reset starts a fresh game and forgets any pending suggestion.
func (s *Session) reset(now time.Time) {
	s.Game = rules.NewGame()
	s.Context.Reset()
	s.StartedAt = now
	s.UpdatedAt = now
}

func (s *Session) Snapshot() *sessionstore.Snapshot {
	return &sessionstore.Snapshot{
		ID:          s.ID,
		StartFEN:    string(s.Game.Start()),
		Moves:       s.Game.MovesLAN(),
		Pending:     s.Context.Pending(),
		CoachedSide: s.CoachedSide.String(),
		StartedAt:   s.StartedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

// Restore rebuilds a session by replaying the snapshot's moves.
func Restore(snap *sessionstore.Snapshot) (*Session, error) {
	if snap == nil {
		return nil, sessionstore.ErrInvalidSnapshot
	}
	side, err := rules.ParseSide(snap.CoachedSide)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", sessionstore.ErrInvalidSnapshot, err)
	}
	start := rules.Position(snap.StartFEN)
	if strings.TrimSpace(snap.StartFEN) == "" {
		start = rules.StartPosition
	}
	game, err := rules.Replay(start, snap.Moves)
	if err != nil {
		return nil, fmt.Errorf("replay session %s: %w", snap.ID, err)
	}
	s := &Session{
		ID:          snap.ID,
		Game:        game,
		CoachedSide: side,
		StartedAt:   snap.StartedAt,
		UpdatedAt:   snap.UpdatedAt,
	}
	s.Context.Store(snap.Pending)
	return s, nil
}
