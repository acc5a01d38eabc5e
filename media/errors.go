package media

import "errors"

// Common errors returned by the catalogue and bookmark services.
var (
	// ErrInvalidCollection is returned for anything other than Movies or TV shows.
	ErrInvalidCollection = errors.New("invalid media collection")

	// ErrBookmarkNotFound is returned by Remove when the user has no bookmark for the item.
	ErrBookmarkNotFound = errors.New("no bookmark found")

	// ErrMissingID is returned when an item or user ID is empty.
	ErrMissingID = errors.New("missing id")

	// ErrNotYouTube is returned by EmbedURL for URLs without a YouTube video ID.
	ErrNotYouTube = errors.New("not a YouTube video URL")
)
