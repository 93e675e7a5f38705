package pieces

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrMalformedID is returned when a global ID does not end in an underscore
// followed by the local index
var ErrMalformedID = errors.New("pieces: malformed global id")

var globalIDPattern = regexp.MustCompile(`^(.+)_([0-9]+)$`)

// GlobalID identifies a piece across places. It is the place ID joined to
// the piece's local index with an underscore, e.g. "place7_3". As place IDs
// may themselves contain underscores the local index is always the digits
// after the last one.
type GlobalID struct {
	Place string
	Index string
}

func (id GlobalID) String() string {
	return id.Place + "_" + id.Index
}

// ParseGlobalID splits s into its place ID and local index
func ParseGlobalID(s string) (GlobalID, error) {
	m := globalIDPattern.FindStringSubmatch(s)
	if m == nil {
		return GlobalID{}, fmt.Errorf("%w: %q", ErrMalformedID, s)
	}
	return GlobalID{Place: m[1], Index: m[2]}, nil
}

// MakeGlobalID returns the global ID of the piece with the given local index
func MakeGlobalID(placeID, index string) string {
	return GlobalID{Place: placeID, Index: index}.String()
}

// IndexFromGlobalID returns the local index of a global ID
func IndexFromGlobalID(id string) (string, error) {
	g, err := ParseGlobalID(id)
	if err != nil {
		return "", err
	}
	return g.Index, nil
}
