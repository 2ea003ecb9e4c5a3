package annotate

import (
	"strings"

	"github.com/park285/chess-coach/internal/rules"
)

// Input carries everything one summary needs. Score is passed through
// untouched; the summary text does not depend on it.
type Input struct {
	PreviousSuggestion string
	Score              *int
	NextBestMove       string
	History            []rules.Move
}

type Annotator struct {
	coached rules.Side
}

type Option func(*Annotator)

// WithCoachedSide selects the side whose moves are graded against the
// previous suggestion. The default is white.
func WithCoachedSide(side rules.Side) Option {
	return func(a *Annotator) {
		a.coached = side
	}
}

func New(opts ...Option) *Annotator {
	a := &Annotator{coached: rules.White}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	return a
}

func (a *Annotator) CoachedSide() rules.Side {
	return a.coached
}

// Summarize builds the feedback text for the last move in in.History.
// It reports false only when the resulting text is empty.
func (a *Annotator) Summarize(in Input) (string, bool) {
	if len(in.History) == 0 {
		return "Game just started.", true
	}
	last := in.History[len(in.History)-1]

	var sb strings.Builder
	sb.WriteString(last.Side.String())
	sb.WriteString("'s move: ")
	sb.WriteString(last.LAN)
	if desc, ok := DescribeMove(last.LAN, last.Before); ok {
		sb.WriteString(" (")
		sb.WriteString(desc)
		sb.WriteString(")")
	}

	if last.Side == a.coached && in.PreviousSuggestion != "" && in.PreviousSuggestion != last.LAN {
		suggested, _ := DescribeMove(in.PreviousSuggestion, last.Before)
		sb.WriteString("\n wasn't optimal. Suggested was: ")
		sb.WriteString(suggested)
		sb.WriteString("\n")
	}

	if msg, ok := whatHappened(last); ok {
		sb.WriteString("\nWhat happened: ")
		sb.WriteString(msg)
	}

	if in.NextBestMove != "" {
		if desc, ok := DescribeMove(in.NextBestMove, last.After); ok {
			sb.WriteString("\n\nSuggestion for ")
			sb.WriteString(last.Side.Other().String())
			sb.WriteString(" is: ")
			sb.WriteString(in.NextBestMove)
			sb.WriteString(": (")
			sb.WriteString(desc)
			sb.WriteString(")")
		}
	}

	out := strings.TrimSpace(sb.String())
	if out == "" {
		return "", false
	}
	return out, true
}
