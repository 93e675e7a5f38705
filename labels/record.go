package labels

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrNoOffset is returned when a record carries no sprite offset in
	// either form
	ErrNoOffset = errors.New("labels: record has neither sprite nor sprite_offset")

	// ErrBadID is returned when a record's id is missing or is not a
	// non-negative integer, written either as a number or as a string of
	// digits
	ErrBadID = errors.New("labels: invalid record id")
)

// Offset is the position of a piece within the assembled image
type Offset struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Record describes a single piece. ID is the local index of the piece within
// its place, kept as the decimal text found in the file.
type Record struct {
	ID     string
	X      int
	Y      int
	Width  int
	Height int
	Sprite Offset
}

// structured is the only form that is written
type structured struct {
	ID     string `json:"id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Sprite Offset `json:"sprite"`
}

// incoming accepts either offset form; presence of the field picks the
// variant
type incoming struct {
	ID           json.RawMessage `json:"id"`
	X            int             `json:"x"`
	Y            int             `json:"y"`
	Width        int             `json:"width"`
	Height       int             `json:"height"`
	Sprite       *Offset         `json:"sprite"`
	SpriteOffset *int            `json:"sprite_offset"`
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func decodeID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", ErrBadID
	}

	var id string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &id); err != nil {
			return "", err
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", fmt.Errorf("%w: %s", ErrBadID, raw)
		}
		id = n.String()
	}

	// Fractions, exponents and signs can't be recovered from a global ID
	if !isDigits(id) {
		return "", fmt.Errorf("%w: %s", ErrBadID, raw)
	}
	return id, nil
}

// UnmarshalJSON decodes either record variant
func (r *Record) UnmarshalJSON(b []byte) error {
	var in incoming
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}

	id, err := decodeID(in.ID)
	if err != nil {
		return err
	}

	var offset Offset
	switch {
	case in.Sprite != nil:
		offset = *in.Sprite
	case in.SpriteOffset != nil:
		offset = Offset{X: *in.SpriteOffset}
	default:
		return fmt.Errorf("%w (id %s)", ErrNoOffset, id)
	}

	*r = Record{
		ID:     id,
		X:      in.X,
		Y:      in.Y,
		Width:  in.Width,
		Height: in.Height,
		Sprite: offset,
	}
	return nil
}

// MarshalJSON encodes the record using the structured offset
func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(structured{
		ID:     r.ID,
		X:      r.X,
		Y:      r.Y,
		Width:  r.Width,
		Height: r.Height,
		Sprite: r.Sprite,
	})
}
