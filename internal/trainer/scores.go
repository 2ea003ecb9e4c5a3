package trainer

import (
	"context"

	"go.uber.org/zap"

	"github.com/park285/chess-coach/internal/rules"
)

// PieceScores evaluates every legal move of the side to move, one request at
// a time, and keeps the highest white-relative score per origin square.
// Squares whose moves all failed to evaluate are left out. At most
// PieceScoreMaxMoves moves are evaluated.
func (t *Trainer) PieceScores(ctx context.Context, s *Session) (map[string]int, error) {
	pos := s.Game.Position()
	legal, err := rules.LegalMoves(pos)
	if err != nil {
		return nil, err
	}

	var order []string
	grouped := make(map[string][]string)
	for _, lan := range legal {
		from := lan[:2]
		if _, seen := grouped[from]; !seen {
			order = append(order, from)
		}
		grouped[from] = append(grouped[from], lan)
	}

	scores := make(map[string]int, len(order))
	evaluated, failed := 0, 0
outer:
	for _, from := range order {
		best, found := 0, false
		for _, lan := range grouped[from] {
			if evaluated >= t.cfg.PieceScoreMaxMoves {
				if found {
					scores[from] = best
				}
				break outer
			}
			if err := ctx.Err(); err != nil {
				return scores, err
			}
			next, err := rules.ApplyLAN(pos, lan)
			if err != nil {
				continue
			}
			evaluated++
			result, err := t.evaluate(ctx, next.After)
			if err != nil {
				failed++
				continue
			}
			if !found || result.Score > best {
				best, found = result.Score, true
			}
		}
		if found {
			scores[from] = best
		}
	}

	t.logger.Debug("piece_scores",
		zap.String("session_id", s.ID),
		zap.Int("legal", len(legal)),
		zap.Int("evaluated", evaluated),
		zap.Int("failed", failed),
		zap.Int("squares", len(scores)),
	)
	return scores, nil
}
