package pieces

import (
	"fmt"
	"path/filepath"

	"github.com/bodgit/pieces/sprite"
)

// ExtractPieces crops every piece of place out of its sprite sheet and
// writes it to dir as <global id>.png
func ExtractPieces(place *Place, dir string, opts ...Option) error {
	o := newOptions(opts)

	for _, p := range place.Pieces {
		m, err := sprite.Crop(place.Sprite, p.BitmapImage.Rect())
		if err != nil {
			return fmt.Errorf("piece %s: %w", p.ID, err)
		}

		file := filepath.Join(dir, p.ID+".png")
		if err := sprite.Save(file, m, sprite.WithColors(o.colors)); err != nil {
			return err
		}
		o.logger.Printf("saved piece to %s\n", file)
	}

	return nil
}
