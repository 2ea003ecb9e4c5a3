package annotate

import (
	"fmt"

	"github.com/park285/chess-coach/internal/rules"
)

// pattern is one qualitative observation about a move. The first matching
// pattern in qualitativePatterns wins.
type pattern struct {
	name    string
	match   func(rules.Move) bool
	message func(rules.Move) string
}

var (
	centerSquares        = squareSet("d4", "e4", "d5", "e5")
	knightDevelopSquares = squareSet("f3", "c3", "f6", "c6")
	bishopDevelopSquares = squareSet("c4", "f4", "g5", "b5")
)

var qualitativePatterns = []pattern{
	{
		name:  "capture",
		match: func(mv rules.Move) bool { return mv.Captured != rules.NoPiece },
		message: func(mv rules.Move) string {
			return fmt.Sprintf("You captured a %s with your %s.\n", mv.Captured.Name(), mv.Piece.Name())
		},
	},
	{
		name:  "center",
		match: func(mv rules.Move) bool { return centerSquares[mv.To] },
		message: func(mv rules.Move) string {
			return fmt.Sprintf("You're controlling the center with your %s.\n", mv.Piece.Name())
		},
	},
	{
		name:    "castle",
		match:   func(mv rules.Move) bool { return mv.Flags.Castle() },
		message: constMessage("You castled your king — good for safety!\n"),
	},
	{
		name: "knight_development",
		match: func(mv rules.Move) bool {
			return mv.Piece == rules.Knight && knightDevelopSquares[mv.To]
		},
		message: constMessage("You developed your knight — nice opening move.\n"),
	},
	{
		name: "bishop_development",
		match: func(mv rules.Move) bool {
			return mv.Piece == rules.Bishop && bishopDevelopSquares[mv.To]
		},
		message: constMessage("You developed your bishop — controlling long diagonals.\n"),
	},
}

func whatHappened(mv rules.Move) (string, bool) {
	for _, p := range qualitativePatterns {
		if p.match(mv) {
			return p.message(mv), true
		}
	}
	return "", false
}

func constMessage(msg string) func(rules.Move) string {
	return func(rules.Move) string { return msg }
}

func squareSet(squares ...string) map[string]bool {
	out := make(map[string]bool, len(squares))
	for _, sq := range squares {
		out[sq] = true
	}
	return out
}
