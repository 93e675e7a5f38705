/*
Package pieces loads and saves the pieces of a place from a directory of
precomputed lookup files.

Each place P in a directory D is stored as two files; a sprite sheet,
D/P.label_sprites.png, holding the bitmap of every piece, and an index,
D/P.labels.json, describing where each piece lies within the sprite sheet and
where it belongs in the assembled image. See package labels for the index
format.
*/
package pieces

import (
	"image"
	"io/ioutil"
	"log"
)

// SpriteOffset is the position of a piece within the assembled image
type SpriteOffset struct {
	X int
	Y int
}

// BitmapImage is the rectangle a piece occupies within the sprite sheet
type BitmapImage struct {
	X            int
	Y            int
	Width        int
	Height       int
	SpriteOffset SpriteOffset
}

// Rect returns the rectangle as an image.Rectangle
func (b BitmapImage) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// Piece is a single piece of a place. ID is the global ID, see GlobalID.
type Piece struct {
	ID          string
	BitmapImage BitmapImage
}

// Place is a sprite sheet together with the ordered pieces cut from it
type Place struct {
	ID     string
	Sprite image.Image
	Pieces []Piece
}

// Logger is the subset of *log.Logger used to report files loaded and saved
type Logger interface {
	Printf(format string, v ...interface{})
}

type options struct {
	background bool
	logger     Logger
	colors     int
	workers    int
}

// Option configures a Splitter and the package-level functions that save or
// convert places.
type Option func(*options)

// WithBackground enables filtering of the background piece
func WithBackground(background bool) Option {
	return func(o *options) {
		o.background = background
	}
}

// WithLogger sets the logger used to report what was loaded and saved
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithColors limits the number of colors of sprite sheets written to disk.
// Zero, the default, writes the sprite sheet unchanged.
func WithColors(n int) Option {
	return func(o *options) {
		o.colors = n
	}
}

// WithWorkers sets the number of directories Normalize converts at once
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

const defaultWorkers = 10

func newOptions(opts []Option) *options {
	o := &options{
		logger:  log.New(ioutil.Discard, "", 0),
		workers: defaultWorkers,
	}
	for _, f := range opts {
		f(o)
	}
	return o
}
