package sprite

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"os"

	"github.com/ericpauley/go-quantize/quantize"
)

// A PNG palette holds at most 256 entries
const maxColors = 256

// Option configures how a sprite sheet is encoded
type Option func(*encoder)

// WithColors limits the sprite sheet to at most n colors. Zero keeps the
// image as it is.
func WithColors(n int) Option {
	return func(e *encoder) {
		e.colors = n
	}
}

type encoder struct {
	colors int
}

// reduce returns m as a paletted image of no more than e.colors colors
func (e *encoder) reduce(m image.Image) *image.Paletted {
	b := m.Bounds()

	// Nothing to do if the palette already fits
	if pm, ok := m.(*image.Paletted); ok && len(pm.Palette) <= e.colors {
		return pm
	}

	q := quantize.MedianCutQuantizer{}
	pm := image.NewPaletted(b, q.Quantize(make(color.Palette, 0, e.colors), m))
	draw.Draw(pm, b, m, b.Min, draw.Src)

	return pm
}

// Encode writes the image m to w as a PNG
func Encode(w io.Writer, m image.Image, opts ...Option) error {
	var e encoder
	for _, o := range opts {
		o(&e)
	}

	if e.colors < 0 || e.colors > maxColors {
		return fmt.Errorf("sprite: color limit %d not in range 0-%d", e.colors, maxColors)
	}

	if e.colors > 0 {
		m = e.reduce(m)
	}

	return png.Encode(w, m)
}

// Save writes the image m to file as a PNG, replacing any existing content
func Save(file string, m image.Image, opts ...Option) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}

	if err := Encode(f, m, opts...); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
