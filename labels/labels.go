/*
Package labels implements the JSON index written alongside each sprite sheet
in a lookup directory.

The index is a JSON array with one record per piece. Each record carries the
piece's local index, its rectangle within the sprite sheet and its offset in
the assembled image:

	{"id": 3, "x": 10, "y": 0, "width": 8, "height": 8, "sprite": {"x": 40, "y": 16}}

Older indices store the offset as a single scalar which is read as an X
offset with Y set to zero:

	{"id": 3, "x": 10, "y": 0, "width": 8, "height": 8, "sprite_offset": 40}

The scalar form is only ever read; records are always written with the
structured offset.
*/
package labels

import (
	"encoding/json"
	"io"
	"io/ioutil"
	"os"
)

// Suffix is appended to a place ID to form the index filename
const Suffix = ".labels.json"

const indent = " "

// Index is the ordered list of records for one place. It implements the
// json.Marshaler and json.Unmarshaler interfaces through its records.
type Index []Record

// Filename returns the index filename for the given place ID
func Filename(placeID string) string {
	return placeID + Suffix
}

// Decode reads an index from r
func Decode(r io.Reader) (Index, error) {
	b, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var idx Index
	if err := json.Unmarshal(b, &idx); err != nil {
		return nil, err
	}
	return idx, nil
}

// Encode writes the index to w as a pretty-printed JSON array
func Encode(w io.Writer, idx Index) error {
	// Always write an array, never null
	if idx == nil {
		idx = Index{}
	}

	b, err := json.MarshalIndent(idx, "", indent)
	if err != nil {
		return err
	}

	_, err = w.Write(b)
	return err
}

// ReadFile reads the index stored in file
func ReadFile(file string) (Index, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Decode(f)
}

// WriteFile writes the index to file, replacing any existing content
func WriteFile(file string, idx Index) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}

	if err := Encode(f, idx); err != nil {
		f.Close()
		return err
	}

	return f.Close()
}
