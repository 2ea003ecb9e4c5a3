package annotate

import (
	"fmt"

	"github.com/park285/chess-coach/internal/rules"
)

// OpponentIntent looks two plies into a principal variation from before and
// describes what the reply (pv[1]) threatens. It reports false when the
// variation is too short, does not apply, or shows no recognisable threat.
func OpponentIntent(before rules.Position, pv []string) (string, bool) {
	if len(pv) < 2 {
		return "", false
	}
	first, err := rules.ApplyLAN(before, pv[0])
	if err != nil {
		return "", false
	}
	reply, err := rules.ApplyLAN(first.After, pv[1])
	if err != nil {
		return "", false
	}

	switch {
	case reply.Captured != rules.NoPiece:
		return fmt.Sprintf("Opponent is planning to capture your %s with %s.", reply.Captured.Name(), reply.Piece.Name()), true
	case reply.Flags.Has(rules.FlagCheck):
		return "Opponent is aiming to check your king. Be cautious.", true
	case centerSquares[reply.To]:
		return "Opponent is trying to control the center.", true
	default:
		return "", false
	}
}
