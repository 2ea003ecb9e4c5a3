// Package annotate turns played moves and engine suggestions into short
// natural-language coaching text.
package annotate

import (
	"fmt"

	"github.com/park285/chess-coach/internal/rules"
)

// DescribeMove renders a UCI move played from before as a sentence such as
// "White pawn moves from e2 to e4.". It reports false when the move is too
// short or is rejected in that position.
func DescribeMove(lan string, before rules.Position) (string, bool) {
	if len(lan) < 4 {
		return "", false
	}
	mv, err := rules.ApplyLAN(before, lan)
	if err != nil {
		return "", false
	}
	return describe(mv), true
}

func describe(mv *rules.Move) string {
	action := "moves"
	if mv.Captured != rules.NoPiece {
		action = "captures " + mv.Captured.Name()
	}
	promo := ""
	if mv.Promotion != rules.NoPiece {
		promo = " and promotes to " + mv.Promotion.Name()
	}
	return fmt.Sprintf("%s %s %s from %s to %s%s.", mv.Side.Title(), mv.Piece.Name(), action, mv.From, mv.To, promo)
}
