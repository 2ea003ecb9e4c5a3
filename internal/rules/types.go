package rules

import (
	"fmt"
	"strings"
)

// Position is a board position in Forsyth-Edwards Notation.
type Position string

// StartPosition is the standard initial arrangement.
const StartPosition Position = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// Side identifies a player. White moves first.
type Side int

const (
	White Side = iota
	Black
)

// String returns the lowercase colour name used in move headers.
func (s Side) String() string {
	if s == Black {
		return "black"
	}
	return "white"
}

// Title returns the capitalised colour name used in move descriptions.
func (s Side) Title() string {
	if s == Black {
		return "Black"
	}
	return "White"
}

func (s Side) Other() Side {
	if s == Black {
		return White
	}
	return Black
}

// ParseSide accepts "white"/"black" and the one-letter forms "w"/"b".
func ParseSide(raw string) (Side, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return White, fmt.Errorf("unknown side %q", raw)
	}
}

// PieceKind is the type of a chess piece, independent of colour.
type PieceKind int

const (
	NoPiece PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceNames = map[PieceKind]string{
	Pawn:   "pawn",
	Knight: "knight",
	Bishop: "bishop",
	Rook:   "rook",
	Queen:  "queen",
	King:   "king",
}

// Name returns the lowercase English piece name, or "" for NoPiece.
func (k PieceKind) Name() string {
	return pieceNames[k]
}

// Letter returns the lowercase UCI promotion letter.
func (k PieceKind) Letter() string {
	switch k {
	case Pawn:
		return "p"
	case Knight:
		return "n"
	case Bishop:
		return "b"
	case Rook:
		return "r"
	case Queen:
		return "q"
	case King:
		return "k"
	default:
		return ""
	}
}

// ParsePromotion maps a promotion letter (q, r, b, n in either case) to a piece kind.
func ParsePromotion(raw string) (PieceKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return NoPiece, nil
	case "q":
		return Queen, nil
	case "r":
		return Rook, nil
	case "b":
		return Bishop, nil
	case "n":
		return Knight, nil
	default:
		return NoPiece, fmt.Errorf("%w: promotion %q", ErrBadNotation, raw)
	}
}

// Flags records move properties reported by the rules adapter.
type Flags uint8

const (
	FlagCapture Flags = 1 << iota
	FlagKingsideCastle
	FlagQueensideCastle
	FlagEnPassant
	FlagPromotion
	FlagCheck
)

func (f Flags) Has(flag Flags) bool {
	return f&flag != 0
}

// Castle reports either castling flag.
func (f Flags) Castle() bool {
	return f.Has(FlagKingsideCastle) || f.Has(FlagQueensideCastle)
}

// Move is a validated, applied move. It carries the positions on both sides
// of the move so consumers never need to rewind a game.
type Move struct {
	From      string
	To        string
	Side      Side
	Piece     PieceKind
	Captured  PieceKind
	Promotion PieceKind
	SAN       string
	LAN       string
	Flags     Flags
	Before    Position
	After     Position
}

// Placement is one occupied square.
type Placement struct {
	Square string
	Side   Side
	Kind   PieceKind
}
