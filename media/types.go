package media

import (
	"bytes"
	"encoding/json"
	"time"
)

// ID is a primary key as sent by the API. Collections may use string or
// integer keys, so both JSON forms are accepted.
type ID string

// UnmarshalJSON accepts a JSON string or number
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// String returns the ID as a string
func (id ID) String() string {
	return string(id)
}

// Item is a movie or TV show record. It is read-only from the client's side.
type Item struct {
	ID          ID         `json:"id" yaml:"id"`
	Title       string     `json:"title" yaml:"title"`
	Thumbnail   string     `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Description string     `json:"description,omitempty" yaml:"description,omitempty"`
	Genre       string     `json:"genre,omitempty" yaml:"genre,omitempty"`
	MediaURL    string     `json:"mediaURL,omitempty" yaml:"mediaURL,omitempty"`
	Status      string     `json:"status,omitempty" yaml:"status,omitempty"`
	Sort        *int       `json:"sort,omitempty" yaml:"sort,omitempty"`
	UserCreated string     `json:"user_created,omitempty" yaml:"user_created,omitempty"`
	DateCreated *time.Time `json:"date_created,omitempty" yaml:"date_created,omitempty"`
	UserUpdated string     `json:"user_updated,omitempty" yaml:"user_updated,omitempty"`
	DateUpdated *time.Time `json:"date_updated,omitempty" yaml:"date_updated,omitempty"`

	// Collection is set by the service that fetched the item
	Collection Collection `json:"-" yaml:"-"`
}

// Key returns the item's identity across collections
func (i Item) Key() string {
	return i.Collection.String() + "/" + i.ID.String()
}

// Bookmark is a row of the Bookmarks collection. Exactly one of MovieID and
// TVShowID is set.
type Bookmark struct {
	ID       ID  `json:"id"`
	UserID   ID  `json:"user_id"`
	MovieID  *ID `json:"movie_id,omitempty"`
	TVShowID *ID `json:"tv_show_id,omitempty"`
}

// Target returns the bookmarked item's ID for the given collection, if set
func (b Bookmark) Target(col Collection) (ID, bool) {
	var ref *ID
	switch col {
	case Movies:
		ref = b.MovieID
	case TVShows:
		ref = b.TVShowID
	}
	if ref == nil || *ref == "" {
		return "", false
	}
	return *ref, true
}

// bookmarkPayload is the body sent when creating a bookmark
type bookmarkPayload struct {
	UserID   string  `json:"user_id"`
	MovieID  *string `json:"movie_id,omitempty"`
	TVShowID *string `json:"tv_show_id,omitempty"`
}

func newBookmarkPayload(itemID string, col Collection, userID string) bookmarkPayload {
	p := bookmarkPayload{UserID: userID}
	switch col {
	case Movies:
		p.MovieID = &itemID
	case TVShows:
		p.TVShowID = &itemID
	}
	return p
}

// BookmarkedItem is a bookmark resolved to the item it points at
type BookmarkedItem struct {
	ID         ID         `json:"id" yaml:"id"`
	Title      string     `json:"title" yaml:"title"`
	Thumbnail  string     `json:"thumbnail,omitempty" yaml:"thumbnail,omitempty"`
	Collection Collection `json:"type" yaml:"type"`
}
