/*
Package sprite loads and saves sprite sheets, the single bitmap that holds
every piece of a place packed side by side.

Sprite sheets are read in any format registered with the image package (PNG,
GIF and JPEG are registered here) and always written as PNG. When a color
limit is requested the sheet is reduced with a median cut quantizer and
written as a paletted PNG.
*/
package sprite

import (
	"errors"
	"image"
	"image/draw"
)

// Suffix is appended to a place ID to form the sprite sheet filename
const Suffix = ".label_sprites.png"

// ErrOutOfBounds is returned when a crop rectangle does not lie within the
// sprite sheet
var ErrOutOfBounds = errors.New("sprite: rectangle out of bounds")

// Filename returns the sprite sheet filename for the given place ID
func Filename(placeID string) string {
	return placeID + Suffix
}

// Crop copies the rectangle r of m, given relative to the top-left corner of
// m, into a new image whose top-left corner is at (0, 0).
func Crop(m image.Image, r image.Rectangle) (image.Image, error) {
	b := m.Bounds()
	r = r.Add(b.Min)
	if r.Empty() || !r.In(b) {
		return nil, ErrOutOfBounds
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), m, r.Min, draw.Src)

	return dst, nil
}
