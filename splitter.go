package pieces

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/bodgit/pieces/labels"
	"github.com/bodgit/pieces/sprite"
)

// Splitter loads places from a directory of lookup files. The set of place
// IDs it will load is fixed when it is created.
type Splitter struct {
	dir      string
	placeIDs map[string]struct{}
	opts     *options
}

// NewSplitter returns a Splitter for the given place IDs stored in dir
func NewSplitter(dir string, placeIDs []string, opts ...Option) *Splitter {
	s := &Splitter{
		dir:      dir,
		placeIDs: make(map[string]struct{}, len(placeIDs)),
		opts:     newOptions(opts),
	}
	for _, id := range placeIDs {
		s.placeIDs[id] = struct{}{}
	}

	s.opts.logger.Printf("loaded %d ids from %s\n", len(placeIDs), dir)

	return s
}

// SplitterFromDir returns a Splitter for every place found in dir
func SplitterFromDir(dir string, opts ...Option) (*Splitter, error) {
	ids, err := PlaceIDsInDir(dir)
	if err != nil {
		return nil, err
	}
	return NewSplitter(dir, ids, opts...), nil
}

// PlaceIDsInDir returns the ID of every place with an index in dir, in the
// order the files are found. Hidden files are ignored.
func PlaceIDsInDir(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*"+labels.Suffix))
	if err != nil {
		return nil, err
	}

	var ids []string
	for _, file := range files {
		base := filepath.Base(file)
		if base[0] == '.' {
			continue
		}
		ids = append(ids, strings.TrimSuffix(base, labels.Suffix))
	}

	return ids, nil
}

// Has reports whether placeID is one of the Splitter's places
func (s *Splitter) Has(placeID string) bool {
	_, ok := s.placeIDs[placeID]
	return ok
}

// Split loads the place with the given ID. If the ID is not one of the
// Splitter's places it returns nil and no error without reading anything.
func (s *Splitter) Split(placeID string) (*Place, error) {
	if !s.Has(placeID) {
		return nil, nil
	}

	spriteFile := filepath.Join(s.dir, sprite.Filename(placeID))
	m, err := sprite.Load(spriteFile)
	if err != nil {
		return nil, fmt.Errorf("loading sprite %s: %w", spriteFile, err)
	}

	indexFile := filepath.Join(s.dir, labels.Filename(placeID))
	idx, err := labels.ReadFile(indexFile)
	if err != nil {
		return nil, fmt.Errorf("loading index %s: %w", indexFile, err)
	}

	return &Place{
		ID:     placeID,
		Sprite: m,
		Pieces: filterBackground(piecesFromIndex(placeID, idx), s.opts.background),
	}, nil
}

func piecesFromIndex(placeID string, idx labels.Index) []Piece {
	pieces := make([]Piece, 0, len(idx))
	for _, r := range idx {
		pieces = append(pieces, Piece{
			ID: MakeGlobalID(placeID, r.ID),
			BitmapImage: BitmapImage{
				X:      r.X,
				Y:      r.Y,
				Width:  r.Width,
				Height: r.Height,
				SpriteOffset: SpriteOffset{
					X: r.Sprite.X,
					Y: r.Sprite.Y,
				},
			},
		})
	}
	return pieces
}

func indexFromPieces(pieces []Piece) (labels.Index, error) {
	idx := make(labels.Index, 0, len(pieces))
	for _, p := range pieces {
		index, err := IndexFromGlobalID(p.ID)
		if err != nil {
			return nil, err
		}
		b := p.BitmapImage
		idx = append(idx, labels.Record{
			ID:     index,
			X:      b.X,
			Y:      b.Y,
			Width:  b.Width,
			Height: b.Height,
			Sprite: labels.Offset{
				X: b.SpriteOffset.X,
				Y: b.SpriteOffset.Y,
			},
		})
	}
	return idx, nil
}

// isBackground assumes a place has at most one background piece, the one
// at the left edge of both the sprite sheet and the assembled image.
func isBackground(p Piece) bool {
	return p.BitmapImage.X == 0 && p.BitmapImage.SpriteOffset.X == 0
}

// filterBackground drops every piece matching isBackground, not just the
// first, when enabled.
func filterBackground(pieces []Piece, enabled bool) []Piece {
	if !enabled {
		return pieces
	}

	filtered := make([]Piece, 0, len(pieces))
	for _, p := range pieces {
		if !isBackground(p) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// SaveToDir writes place to dir as a sprite sheet and an index. Offsets are
// always written in the structured form. The index is built in full before
// anything is written, so a malformed piece ID leaves dir untouched, however
// the two files are written independently and a failure writing the index
// leaves the new sprite sheet in place.
func SaveToDir(place *Place, dir string, opts ...Option) error {
	o := newOptions(opts)

	idx, err := indexFromPieces(place.Pieces)
	if err != nil {
		return err
	}

	spriteFile := filepath.Join(dir, sprite.Filename(place.ID))
	if err := sprite.Save(spriteFile, place.Sprite, sprite.WithColors(o.colors)); err != nil {
		return err
	}
	o.logger.Printf("saved image to %s\n", spriteFile)

	indexFile := filepath.Join(dir, labels.Filename(place.ID))
	if err := labels.WriteFile(indexFile, idx); err != nil {
		return err
	}
	o.logger.Printf("saved %d pieces to %s\n", len(idx), indexFile)

	return nil
}
