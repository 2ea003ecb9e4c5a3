// Package rules adapts github.com/corentings/chess/v2 to the small surface
// the coach needs: validate and apply moves, report what a move did, and
// expose FEN snapshots on both sides of every move.
package rules

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

var (
	ErrIllegalMove = errors.New("illegal move")
	ErrBadNotation = errors.New("bad move notation")
	ErrBadPosition = errors.New("bad position")
)

var (
	boardFiles = []nchess.File{nchess.FileA, nchess.FileB, nchess.FileC, nchess.FileD, nchess.FileE, nchess.FileF, nchess.FileG, nchess.FileH}
	boardRanks = []nchess.Rank{nchess.Rank8, nchess.Rank7, nchess.Rank6, nchess.Rank5, nchess.Rank4, nchess.Rank3, nchess.Rank2, nchess.Rank1}
)

// Apply validates the move from -> to in pos and returns the applied move.
// promo is honoured only when a pawn reaches the last rank; a missing
// promotion piece in that case defaults to a queen.
func Apply(pos Position, from, to string, promo PieceKind) (*Move, error) {
	game, err := newGame(pos)
	if err != nil {
		return nil, err
	}
	return play(game, from, to, promo, false)
}

// ApplyLAN applies a move in long algebraic (UCI) notation such as "e2e4" or
// "e7e8q". Unlike Apply, a pawn reaching the last rank must name its
// promotion piece.
func ApplyLAN(pos Position, lan string) (*Move, error) {
	from, to, promo, err := SplitLAN(lan)
	if err != nil {
		return nil, err
	}
	game, err := newGame(pos)
	if err != nil {
		return nil, err
	}
	return play(game, from, to, promo, true)
}

// SplitLAN breaks a 4 or 5 character UCI move into its parts.
func SplitLAN(lan string) (from, to string, promo PieceKind, err error) {
	lan = strings.ToLower(strings.TrimSpace(lan))
	if len(lan) != 4 && len(lan) != 5 {
		return "", "", NoPiece, fmt.Errorf("%w: %q", ErrBadNotation, lan)
	}
	from, to = lan[0:2], lan[2:4]
	if !validSquare(from) || !validSquare(to) {
		return "", "", NoPiece, fmt.Errorf("%w: %q", ErrBadNotation, lan)
	}
	if len(lan) == 5 {
		promo, err = ParsePromotion(lan[4:])
		if err != nil {
			return "", "", NoPiece, err
		}
	}
	return from, to, promo, nil
}

// LegalMoves lists every legal move in pos as UCI strings.
func LegalMoves(pos Position) ([]string, error) {
	game, err := newGame(pos)
	if err != nil {
		return nil, err
	}
	return legalMoves(game), nil
}

// Occupancy lists the pieces on the board, rank 8 first.
func Occupancy(pos Position) ([]Placement, error) {
	game, err := newGame(pos)
	if err != nil {
		return nil, err
	}
	board := game.Position().Board()
	var out []Placement
	for _, rank := range boardRanks {
		for _, file := range boardFiles {
			sq := nchess.NewSquare(file, rank)
			piece := board.Piece(sq)
			if piece == nchess.NoPiece {
				continue
			}
			out = append(out, Placement{Square: sq.String(), Side: sideFrom(piece.Color()), Kind: kindFrom(piece.Type())})
		}
	}
	return out, nil
}

// Turn reports the side to move in pos.
func Turn(pos Position) (Side, error) {
	game, err := newGame(pos)
	if err != nil {
		return White, err
	}
	return sideFrom(game.Position().Turn()), nil
}

// FullMoveNumber reads the sixth FEN field. Malformed values yield 1.
func FullMoveNumber(pos Position) int {
	fields := strings.Fields(string(pos))
	if len(fields) < 6 {
		return 1
	}
	n, err := strconv.Atoi(fields[5])
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// Validate checks that pos parses as a FEN position.
func Validate(pos Position) error {
	_, err := newGame(pos)
	return err
}

func newGame(pos Position) (*nchess.Game, error) {
	raw := strings.TrimSpace(string(pos))
	if raw == "" {
		return nil, fmt.Errorf("%w: empty", ErrBadPosition)
	}
	opt, err := nchess.FEN(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPosition, err)
	}
	return nchess.NewGame(opt), nil
}

// play applies from -> to. With strictPromo a promotion without a piece is
// rejected instead of defaulting to a queen.
func play(game *nchess.Game, from, to string, promo PieceKind, strictPromo bool) (*Move, error) {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	if !validSquare(from) || !validSquare(to) {
		return nil, fmt.Errorf("%w: %s%s", ErrBadNotation, from, to)
	}

	before := game.Position()
	board := before.Board()
	moving := board.Piece(parseSquare(from))
	if moving == nchess.NoPiece {
		return nil, fmt.Errorf("%w: no piece on %s", ErrIllegalMove, from)
	}
	if moving.Color() != before.Turn() {
		return nil, fmt.Errorf("%w: %s is not %s's piece", ErrIllegalMove, from, sideFrom(before.Turn()))
	}

	kind := kindFrom(moving.Type())
	if kind == Pawn && (to[1] == '8' || to[1] == '1') {
		if promo == NoPiece {
			if strictPromo {
				return nil, fmt.Errorf("%w: %s%s needs a promotion piece", ErrIllegalMove, from, to)
			}
			promo = Queen
		}
	} else {
		promo = NoPiece
	}

	lan := from + to + promo.Letter()
	if err := game.PushNotationMove(lan, nchess.UCINotation{}, nil); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrIllegalMove, lan, err)
	}
	moves := game.Moves()
	if len(moves) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrIllegalMove, lan)
	}
	last := moves[len(moves)-1]

	mv := &Move{
		From:      from,
		To:        to,
		Side:      sideFrom(before.Turn()),
		Piece:     kind,
		Promotion: promo,
		SAN:       nchess.AlgebraicNotation{}.Encode(before, last),
		LAN:       lan,
		Before:    Position(before.String()),
		After:     Position(game.FEN()),
	}

	if target := board.Piece(parseSquare(to)); target != nchess.NoPiece {
		mv.Captured = kindFrom(target.Type())
	} else if kind == Pawn && from[0] != to[0] {
		mv.Captured = Pawn
		mv.Flags |= FlagEnPassant
	}
	if mv.Captured != NoPiece {
		mv.Flags |= FlagCapture
	}
	if kind == King {
		switch {
		case from[0] == 'e' && to[0] == 'g':
			mv.Flags |= FlagKingsideCastle
		case from[0] == 'e' && to[0] == 'c':
			mv.Flags |= FlagQueensideCastle
		}
	}
	if promo != NoPiece {
		mv.Flags |= FlagPromotion
	}
	if last.HasTag(nchess.Check) {
		mv.Flags |= FlagCheck
	}
	return mv, nil
}

func legalMoves(game *nchess.Game) []string {
	valid := game.ValidMoves()
	out := make([]string, 0, len(valid))
	for i := range valid {
		out = append(out, strings.ToLower(valid[i].String()))
	}
	return out
}

func validSquare(sq string) bool {
	return len(sq) == 2 && sq[0] >= 'a' && sq[0] <= 'h' && sq[1] >= '1' && sq[1] <= '8'
}

func parseSquare(sq string) nchess.Square {
	return nchess.NewSquare(nchess.File(sq[0]-'a'), nchess.Rank(sq[1]-'1'))
}

func sideFrom(c nchess.Color) Side {
	if c == nchess.Black {
		return Black
	}
	return White
}

func kindFrom(pt nchess.PieceType) PieceKind {
	switch pt {
	case nchess.Pawn:
		return Pawn
	case nchess.Knight:
		return Knight
	case nchess.Bishop:
		return Bishop
	case nchess.Rook:
		return Rook
	case nchess.Queen:
		return Queen
	case nchess.King:
		return King
	default:
		return NoPiece
	}
}
