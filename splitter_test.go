package pieces

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"io/ioutil"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/bodgit/pieces/sprite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDir(t *testing.T) string {
	dir, err := ioutil.TempDir("", "pieces")
	require.Nil(t, err)
	t.Cleanup(func() {
		os.RemoveAll(dir)
	})
	return dir
}

func testSprite() image.Image {
	m := image.NewRGBA(image.Rect(0, 0, 16, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 16; x++ {
			m.Set(x, y, color.RGBA{uint8(x * 16), uint8(y * 32), 0x80, 0xff})
		}
	}
	return m
}

func writePlace(t *testing.T, dir, id, index string) {
	require.Nil(t, sprite.Save(filepath.Join(dir, id+".label_sprites.png"), testSprite()))
	require.Nil(t, ioutil.WriteFile(filepath.Join(dir, id+".labels.json"), []byte(index), 0644))
}

func testPlace(id string) *Place {
	return &Place{
		ID:     id,
		Sprite: testSprite(),
		Pieces: []Piece{
			{
				ID: MakeGlobalID(id, "0"),
				BitmapImage: BitmapImage{
					X: 0, Y: 0, Width: 8, Height: 8,
					SpriteOffset: SpriteOffset{X: 0, Y: 0},
				},
			},
			{
				ID: MakeGlobalID(id, "1"),
				BitmapImage: BitmapImage{
					X: 8, Y: 0, Width: 4, Height: 8,
					SpriteOffset: SpriteOffset{X: 100, Y: 20},
				},
			},
			{
				ID: MakeGlobalID(id, "12"),
				BitmapImage: BitmapImage{
					X: 12, Y: 2, Width: 4, Height: 6,
					SpriteOffset: SpriteOffset{X: 3, Y: 50},
				},
			},
		},
	}
}

func TestPlaceIDsInDir(t *testing.T) {
	dir := tempDir(t)
	for _, file := range []string{"a.labels.json", "b.labels.json", "c.txt", ".hidden.labels.json"} {
		require.Nil(t, ioutil.WriteFile(filepath.Join(dir, file), []byte("[]"), 0644))
	}

	ids, err := PlaceIDsInDir(dir)
	require.Nil(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, ids)
}

func TestSplitterFromDir(t *testing.T) {
	dir := tempDir(t)
	writePlace(t, dir, "a", "[]")

	b := new(bytes.Buffer)
	s, err := SplitterFromDir(dir, WithLogger(log.New(b, "", 0)))
	require.Nil(t, err)

	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("b"))
	assert.Equal(t, "loaded 1 ids from "+dir+"\n", b.String())
}

func TestSplitUnknown(t *testing.T) {
	// The directory doesn't exist so any read would fail
	s := NewSplitter(filepath.Join(tempDir(t), "missing"), []string{"a"})

	place, err := s.Split("nonexistent")
	assert.Nil(t, err)
	assert.Nil(t, place)
}

func TestSplit(t *testing.T) {
	dir := tempDir(t)
	writePlace(t, dir, "place7", `[
 {"id": 3, "x": 0, "y": 0, "width": 8, "height": 8, "sprite": {"x": 10, "y": 20}},
 {"id": 4, "x": 8, "y": 1, "width": 8, "height": 7, "sprite_offset": 7}
]`)

	s := NewSplitter(dir, []string{"place7"})
	place, err := s.Split("place7")
	require.Nil(t, err)
	require.NotNil(t, place)

	assert.Equal(t, "place7", place.ID)
	assert.Equal(t, image.Rect(0, 0, 16, 8), place.Sprite.Bounds())
	assert.Equal(t, []Piece{
		{
			ID: "place7_3",
			BitmapImage: BitmapImage{
				X: 0, Y: 0, Width: 8, Height: 8,
				SpriteOffset: SpriteOffset{X: 10, Y: 20},
			},
		},
		{
			ID: "place7_4",
			BitmapImage: BitmapImage{
				X: 8, Y: 1, Width: 8, Height: 7,
				SpriteOffset: SpriteOffset{X: 7, Y: 0},
			},
		},
	}, place.Pieces)
}

func TestSplitLegacyOffset(t *testing.T) {
	dir := tempDir(t)
	writePlace(t, dir, "legacy", `[{"id": 1, "x": 2, "y": 3, "width": 4, "height": 5, "sprite_offset": 7}]`)
	writePlace(t, dir, "structured", `[{"id": 1, "x": 2, "y": 3, "width": 4, "height": 5, "sprite": {"x": 7, "y": 0}}]`)

	s, err := SplitterFromDir(dir)
	require.Nil(t, err)

	legacy, err := s.Split("legacy")
	require.Nil(t, err)
	structured, err := s.Split("structured")
	require.Nil(t, err)

	require.Len(t, legacy.Pieces, 1)
	require.Len(t, structured.Pieces, 1)
	assert.Equal(t, structured.Pieces[0].BitmapImage, legacy.Pieces[0].BitmapImage)
}

func TestSplitMissingIndex(t *testing.T) {
	dir := tempDir(t)
	require.Nil(t, sprite.Save(filepath.Join(dir, "a.label_sprites.png"), testSprite()))

	_, err := NewSplitter(dir, []string{"a"}).Split("a")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSplitMissingSprite(t *testing.T) {
	dir := tempDir(t)
	require.Nil(t, ioutil.WriteFile(filepath.Join(dir, "a.labels.json"), []byte("[]"), 0644))

	_, err := NewSplitter(dir, []string{"a"}).Split("a")
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSplitCorruptIndex(t *testing.T) {
	dir := tempDir(t)
	writePlace(t, dir, "a", `[{"id": 1,`)

	_, err := NewSplitter(dir, []string{"a"}).Split("a")
	assert.NotNil(t, err)
}

func backgroundPieces() []Piece {
	return []Piece{
		{ID: "p_0", BitmapImage: BitmapImage{X: 0, SpriteOffset: SpriteOffset{X: 0}}},
		{ID: "p_1", BitmapImage: BitmapImage{X: 5, SpriteOffset: SpriteOffset{X: 0}}},
		{ID: "p_2", BitmapImage: BitmapImage{X: 0, SpriteOffset: SpriteOffset{X: 3}}},
	}
}

func TestFilterBackground(t *testing.T) {
	pieces := backgroundPieces()

	assert.Equal(t, pieces[1:], filterBackground(pieces, true))
	assert.Equal(t, pieces, filterBackground(pieces, false))

	// Every matching piece goes, not just the first
	twice := append(backgroundPieces(), Piece{ID: "p_3", BitmapImage: BitmapImage{Y: 9}})
	assert.Equal(t, twice[1:3], filterBackground(twice, true))
}

func TestSplitBackground(t *testing.T) {
	dir := tempDir(t)
	writePlace(t, dir, "p", `[
 {"id": 0, "x": 0, "y": 0, "width": 1, "height": 1, "sprite": {"x": 0, "y": 4}},
 {"id": 1, "x": 5, "y": 0, "width": 1, "height": 1, "sprite": {"x": 0, "y": 0}},
 {"id": 2, "x": 0, "y": 1, "width": 1, "height": 1, "sprite_offset": 3}
]`)

	place, err := NewSplitter(dir, []string{"p"}, WithBackground(true)).Split("p")
	require.Nil(t, err)
	require.Len(t, place.Pieces, 2)
	assert.Equal(t, "p_1", place.Pieces[0].ID)
	assert.Equal(t, "p_2", place.Pieces[1].ID)

	place, err = NewSplitter(dir, []string{"p"}).Split("p")
	require.Nil(t, err)
	require.Len(t, place.Pieces, 3)
	for i, p := range place.Pieces {
		index, err := IndexFromGlobalID(p.ID)
		require.Nil(t, err)
		assert.Equal(t, []string{"0", "1", "2"}[i], index)
	}
}

func TestSaveToDir(t *testing.T) {
	dir := tempDir(t)
	place := testPlace("weird_name")

	b := new(bytes.Buffer)
	require.Nil(t, SaveToDir(place, dir, WithLogger(log.New(b, "", 0))))

	spriteFile := filepath.Join(dir, "weird_name.label_sprites.png")
	indexFile := filepath.Join(dir, "weird_name.labels.json")
	assert.Equal(t, "saved image to "+spriteFile+"\nsaved 3 pieces to "+indexFile+"\n", b.String())

	index, err := ioutil.ReadFile(indexFile)
	require.Nil(t, err)
	assert.Contains(t, string(index), `"id": "12"`)
	assert.Contains(t, string(index), `"sprite": {`)
	assert.NotContains(t, string(index), "sprite_offset")
}

func TestSaveToDirRoundTrip(t *testing.T) {
	dir := tempDir(t)
	place := testPlace("place7")
	require.Nil(t, SaveToDir(place, dir))

	s, err := SplitterFromDir(dir)
	require.Nil(t, err)

	loaded, err := s.Split("place7")
	require.Nil(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, place.ID, loaded.ID)
	assert.Equal(t, place.Pieces, loaded.Pieces)

	bounds := place.Sprite.Bounds()
	require.Equal(t, bounds, loaded.Sprite.Bounds())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			assert.Equal(t, color.RGBAModel.Convert(place.Sprite.At(x, y)), color.RGBAModel.Convert(loaded.Sprite.At(x, y)))
		}
	}
}

func TestSaveToDirRoundTripLegacy(t *testing.T) {
	src, dst := tempDir(t), tempDir(t)
	writePlace(t, src, "old", `[{"id": 5, "x": 1, "y": 2, "width": 3, "height": 4, "sprite_offset": 9}]`)

	place, err := NewSplitter(src, []string{"old"}).Split("old")
	require.Nil(t, err)
	require.Nil(t, SaveToDir(place, dst))

	index, err := ioutil.ReadFile(filepath.Join(dst, "old.labels.json"))
	require.Nil(t, err)
	assert.NotContains(t, string(index), "sprite_offset")

	again, err := NewSplitter(dst, []string{"old"}).Split("old")
	require.Nil(t, err)
	assert.Equal(t, place.Pieces, again.Pieces)
}

func TestSaveToDirMalformedID(t *testing.T) {
	dir := tempDir(t)
	place := testPlace("p")
	place.Pieces[1].ID = "no-index"

	err := SaveToDir(place, dir)
	assert.True(t, errors.Is(err, ErrMalformedID))

	// Nothing is written
	files, err := ioutil.ReadDir(dir)
	require.Nil(t, err)
	assert.Empty(t, files)
}

func TestSaveToDirColors(t *testing.T) {
	dir := tempDir(t)
	require.Nil(t, SaveToDir(testPlace("p"), dir, WithColors(4)))

	m, err := sprite.Load(filepath.Join(dir, "p.label_sprites.png"))
	require.Nil(t, err)

	pm, ok := m.(*image.Paletted)
	require.True(t, ok)
	assert.True(t, len(pm.Palette) <= 4)
}
