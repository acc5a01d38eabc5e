package media

import (
	"fmt"
	"strings"
)

// Collection identifies one of the two catalogue collections
type Collection int

const (
	// Movies is the "Movies" collection
	Movies Collection = iota + 1
	// TVShows is the "TV_Shows" collection
	TVShows
)

// Collections lists every catalogue collection in display order
var Collections = []Collection{Movies, TVShows}

// String returns the collection's name on the wire
func (c Collection) String() string {
	switch c {
	case Movies:
		return "Movies"
	case TVShows:
		return "TV_Shows"
	default:
		return "Unknown"
	}
}

// BookmarkField returns the Bookmarks column that references this collection
func (c Collection) BookmarkField() string {
	switch c {
	case Movies:
		return "movie_id"
	case TVShows:
		return "tv_show_id"
	default:
		return ""
	}
}

// Label returns a human-readable singular name
func (c Collection) Label() string {
	switch c {
	case Movies:
		return "movie"
	case TVShows:
		return "TV show"
	default:
		return "item"
	}
}

// Valid reports whether c is one of the known collections
func (c Collection) Valid() bool {
	return c == Movies || c == TVShows
}

// ParseCollection accepts the wire names and a few common aliases
func ParseCollection(s string) (Collection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movies", "movie":
		return Movies, nil
	case "tv_shows", "tvshows", "tv-shows", "tv", "shows", "show":
		return TVShows, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidCollection, s)
}

// MarshalText implements encoding.TextMarshaler
func (c Collection) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCollection, int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (c *Collection) UnmarshalText(text []byte) error {
	parsed, err := ParseCollection(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
