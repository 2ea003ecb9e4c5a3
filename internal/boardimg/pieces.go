package boardimg

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"

	"github.com/park285/chess-coach/internal/rules"
)

const discTemplate = `<svg xmlns="http://www.w3.org/2000/svg" width="100" height="100" viewBox="0 0 100 100">
<circle cx="50" cy="50" r="34" fill="%s" stroke="%s" stroke-width="5"/>
</svg>`

type discKey struct {
	side rules.Side
	size int
}

var (
	discCache   = map[discKey]image.Image{}
	discCacheMu sync.RWMutex
)

func discSVG(side rules.Side) []byte {
	if side == rules.White {
		return fmt.Appendf(nil, discTemplate, "#FAFAFA", "#202020")
	}
	return fmt.Appendf(nil, discTemplate, "#202020", "#FAFAFA")
}

func letterColor(side rules.Side) color.Color {
	if side == rules.White {
		return color.Black
	}
	return color.White
}

// pieceDisc rasterises the piece background for side at size pixels.
func pieceDisc(side rules.Side, size int) (image.Image, error) {
	key := discKey{side: side, size: size}

	discCacheMu.RLock()
	if img, ok := discCache[key]; ok {
		discCacheMu.RUnlock()
		return img, nil
	}
	discCacheMu.RUnlock()

	icon, err := oksvg.ReadIconStream(bytes.NewReader(discSVG(side)))
	if err != nil {
		return nil, fmt.Errorf("parse piece svg: %w", err)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	discCacheMu.Lock()
	discCache[key] = img
	discCacheMu.Unlock()
	return img, nil
}
