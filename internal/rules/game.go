package rules

import (
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
)

// Game is a live game with its move history. It is not safe for concurrent use.
type Game struct {
	start   Position
	game    *nchess.Game
	history []Move
}

func NewGame() *Game {
	g, _ := NewGameFrom(StartPosition)
	return g
}

// NewGameFrom starts a game at an arbitrary position.
func NewGameFrom(start Position) (*Game, error) {
	game, err := newGame(start)
	if err != nil {
		return nil, err
	}
	return &Game{start: Position(strings.TrimSpace(string(start))), game: game}, nil
}

// Replay rebuilds a game by applying UCI moves from start.
func Replay(start Position, moves []string) (*Game, error) {
	g, err := NewGameFrom(start)
	if err != nil {
		return nil, err
	}
	for _, lan := range moves {
		if _, err := g.PlayLAN(lan); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Play validates and applies a move. An illegal move leaves the game unchanged.
func (g *Game) Play(from, to string, promo PieceKind) (*Move, error) {
	return g.apply(from, to, promo, false)
}

// PlayLAN applies a UCI move; promotions must name their piece as in ApplyLAN.
func (g *Game) PlayLAN(lan string) (*Move, error) {
	from, to, promo, err := SplitLAN(lan)
	if err != nil {
		return nil, err
	}
	return g.apply(from, to, promo, true)
}

func (g *Game) apply(from, to string, promo PieceKind, strictPromo bool) (*Move, error) {
	mv, err := play(g.game, from, to, promo, strictPromo)
	if err != nil {
		return nil, err
	}
	g.history = append(g.history, *mv)
	return mv, nil
}

// History returns a copy of the applied moves, oldest first.
func (g *Game) History() []Move {
	out := make([]Move, len(g.history))
	copy(out, g.history)
	return out
}

func (g *Game) LastMove() (Move, bool) {
	if len(g.history) == 0 {
		return Move{}, false
	}
	return g.history[len(g.history)-1], true
}

// MovesLAN lists the applied moves in UCI notation.
func (g *Game) MovesLAN() []string {
	out := make([]string, 0, len(g.history))
	for _, mv := range g.history {
		out = append(out, mv.LAN)
	}
	return out
}

func (g *Game) Start() Position {
	return g.start
}

func (g *Game) Position() Position {
	return Position(g.game.FEN())
}

func (g *Game) Turn() Side {
	return sideFrom(g.game.Position().Turn())
}

func (g *Game) LegalMoves() []string {
	return legalMoves(g.game)
}

// Outcome returns "white", "black", "draw" or "" while the game is in progress.
func (g *Game) Outcome() string {
	switch g.game.Outcome() {
	case nchess.WhiteWon:
		return "white"
	case nchess.BlackWon:
		return "black"
	case nchess.Draw:
		return "draw"
	default:
		return ""
	}
}

var ecoBook = opening.NewBookECO()

// Opening looks up the ECO classification of the moves played so far.
// Games that did not begin from the standard position have none.
func (g *Game) Opening() (code, title string, ok bool) {
	if ecoBook == nil || g.start != StartPosition || len(g.history) == 0 {
		return "", "", false
	}
	eco := ecoBook.Find(g.game.Moves())
	if eco == nil {
		return "", "", false
	}
	return eco.Code(), eco.Title(), true
}
