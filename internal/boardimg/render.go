// Package boardimg draws a position as a PNG with an optional last-move
// highlight and a per-square score overlay.
package boardimg

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strconv"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/park285/chess-coach/internal/rules"
)

const (
	squareSize = 64
	margin     = 24
	boardSize  = squareSize * 8
	imageSize  = boardSize + margin*2
)

// Highlight marks the squares of the last move.
type Highlight struct {
	From string
	To   string
}

type Options struct {
	LastMove *Highlight
	// Scores maps origin squares to white-relative centipawn scores.
	Scores map[string]int
}

var (
	lightSquare    = color.RGBA{R: 0xEE, G: 0xEE, B: 0xD2, A: 0xFF}
	darkSquare     = color.RGBA{R: 0x76, G: 0x96, B: 0x56, A: 0xFF}
	frameColor     = color.RGBA{R: 0x30, G: 0x2E, B: 0x2B, A: 0xFF}
	coordColor     = color.RGBA{R: 0xE0, G: 0xE0, B: 0xE0, A: 0xFF}
	highlightFill  = color.NRGBA{R: 0xF6, G: 0xF6, B: 0x69, A: 0x90}
	scoreGoodTint  = color.NRGBA{R: 0x2E, G: 0x9E, B: 0x4F}
	scoreBadTint   = color.NRGBA{R: 0xC8, G: 0x3A, B: 0x3A}
	scoreLabelText = color.RGBA{R: 0x10, G: 0x10, B: 0x10, A: 0xFF}
)

// maxTintCP is the score at which the overlay reaches full strength.
const maxTintCP = 300

// Render draws pos. Unknown squares in opts are ignored.
func Render(ctx context.Context, pos rules.Position, opts Options) ([]byte, error) {
	placements, err := rules.Occupancy(pos)
	if err != nil {
		return nil, fmt.Errorf("board image: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	img := image.NewRGBA(image.Rect(0, 0, imageSize, imageSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(frameColor), image.Point{}, draw.Src)
	origin := image.Point{X: margin, Y: margin}

	drawSquares(img, origin)
	if h := opts.LastMove; h != nil {
		overlaySquare(img, h.From, origin, highlightFill)
		overlaySquare(img, h.To, origin, highlightFill)
	}
	drawScoreTint(img, opts.Scores, origin)
	if err := drawPieces(img, placements, origin); err != nil {
		return nil, err
	}
	drawScoreLabels(img, opts.Scores, origin)
	drawCoordinates(img, origin)

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func drawSquares(dst draw.Image, origin image.Point) {
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			x := origin.X + col*squareSize
			y := origin.Y + row*squareSize
			draw.Draw(dst, image.Rect(x, y, x+squareSize, y+squareSize), image.NewUniform(squareColor(col, row)), image.Point{}, draw.Src)
		}
	}
}

func drawPieces(dst draw.Image, placements []rules.Placement, origin image.Point) error {
	drawer := &font.Drawer{Dst: dst, Face: basicfont.Face7x13}
	for _, p := range placements {
		rect, ok := squareRect(p.Square, origin)
		if !ok {
			continue
		}
		disc, err := pieceDisc(p.Side, squareSize)
		if err != nil {
			return err
		}
		draw.Draw(dst, rect, disc, image.Point{}, draw.Over)

		drawer.Src = image.NewUniform(letterColor(p.Side))
		center := rect.Min.Add(image.Pt(squareSize/2, squareSize/2))
		drawCenteredText(drawer, pieceLabel(p), center.X, center.Y+basicfont.Face7x13.Ascent/2-1)
	}
	return nil
}

func drawScoreTint(img *image.RGBA, scores map[string]int, origin image.Point) {
	for sq, cp := range scores {
		overlaySquare(img, sq, origin, scoreTint(cp))
	}
}

func drawScoreLabels(dst draw.Image, scores map[string]int, origin image.Point) {
	drawer := &font.Drawer{Dst: dst, Face: basicfont.Face7x13, Src: image.NewUniform(scoreLabelText)}
	for sq, cp := range scores {
		rect, ok := squareRect(sq, origin)
		if !ok {
			continue
		}
		drawer.Dot = fixed.P(rect.Min.X+3, rect.Max.Y-3)
		drawer.DrawString(formatScore(cp))
	}
}

func drawCoordinates(dst draw.Image, origin image.Point) {
	face := basicfont.Face7x13
	drawer := &font.Drawer{Dst: dst, Face: face, Src: image.NewUniform(coordColor)}
	for i := 0; i < 8; i++ {
		file := string(rune('a' + i))
		rank := strconv.Itoa(8 - i)
		center := origin.X + i*squareSize + squareSize/2
		drawCenteredText(drawer, file, center, origin.Y+boardSize+face.Ascent+4)
		rankCenter := origin.Y + i*squareSize + squareSize/2
		drawCenteredText(drawer, rank, margin/2, rankCenter+face.Ascent/2)
	}
}

func overlaySquare(img *image.RGBA, sq string, origin image.Point, clr color.Color) {
	rect, ok := squareRect(sq, origin)
	if !ok {
		return
	}
	draw.Draw(img, rect, image.NewUniform(clr), image.Point{}, draw.Over)
}

// squareRect maps an algebraic square to its pixel rectangle, white at the
// bottom.
func squareRect(sq string, origin image.Point) (image.Rectangle, bool) {
	if len(sq) != 2 || sq[0] < 'a' || sq[0] > 'h' || sq[1] < '1' || sq[1] > '8' {
		return image.Rectangle{}, false
	}
	col := int(sq[0] - 'a')
	row := 7 - int(sq[1]-'1')
	x := origin.X + col*squareSize
	y := origin.Y + row*squareSize
	return image.Rect(x, y, x+squareSize, y+squareSize), true
}

func squareColor(col, row int) color.RGBA {
	if (col+row)%2 == 0 {
		return lightSquare
	}
	return darkSquare
}

func scoreTint(cp int) color.NRGBA {
	tint := scoreGoodTint
	if cp < 0 {
		tint = scoreBadTint
		cp = -cp
	}
	cp = min(cp, maxTintCP)
	tint.A = uint8(0x30 + (0x90-0x30)*cp/maxTintCP)
	return tint
}

func formatScore(cp int) string {
	if cp > 0 {
		return "+" + strconv.Itoa(cp)
	}
	return strconv.Itoa(cp)
}

func pieceLabel(p rules.Placement) string {
	letter := p.Kind.Letter()
	if p.Side == rules.White {
		return string(letter[0] - 'a' + 'A')
	}
	return letter
}

func drawCenteredText(drawer *font.Drawer, text string, centerX, baseline int) {
	width := drawer.MeasureString(text).Ceil()
	drawer.Dot = fixed.P(centerX-width/2, baseline)
	drawer.DrawString(text)
}
