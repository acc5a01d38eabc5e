package media

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assetURL(id string) string { return "http://cms/assets/" + id }

func TestConsoleFormatter_FormatItemList(t *testing.T) {
	f := NewConsoleFormatter(assetURL)

	assert.Equal(t, "No TV Shows found\n", f.FormatItemList(TVShows, nil, nil))

	out := f.FormatItemList(Movies, []Item{
		{ID: "m1", Title: "Heat", Genre: "Crime"},
		{ID: "m2", Title: "Alien"},
	}, map[string]bool{"m2": true})

	assert.Contains(t, out, "Movies (2):")
	assert.Contains(t, out, "├── Heat [m1]\n│   Genre: Crime\n")
	assert.Contains(t, out, "╰── Alien ★ [m2]\n")
}

func TestConsoleFormatter_FormatItem(t *testing.T) {
	f := NewConsoleFormatter(assetURL)

	out := f.FormatItem(Item{
		ID:         "m1",
		Title:      "Heat",
		Thumbnail:  "f1",
		MediaURL:   "https://youtu.be/abc",
		Collection: Movies,
	}, true)

	assert.Contains(t, out, "Heat ★")
	assert.Contains(t, out, "Type:    movie")
	assert.Contains(t, out, "Watch:   https://www.youtube.com/embed/abc")
	assert.Contains(t, out, "Poster:  http://cms/assets/f1")
}

func TestConsoleFormatter_FormatBookmarks(t *testing.T) {
	f := NewConsoleFormatter(nil)

	assert.Equal(t, "No bookmarks yet\n", f.FormatBookmarks(nil))

	out := f.FormatBookmarks([]BookmarkedItem{{ID: "t1", Title: "The Wire", Thumbnail: "x", Collection: TVShows}})
	assert.Contains(t, out, "Bookmark (1):")
	assert.Contains(t, out, "╰── The Wire (TV show) [t1]")
	assert.NotContains(t, out, "Poster")
}

func TestRender(t *testing.T) {
	items := []BookmarkedItem{{ID: "m1", Title: "Heat", Collection: Movies}}

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, FormatJSON, items))
	assert.JSONEq(t, `[{"id":"m1","title":"Heat","type":"Movies"}]`, buf.String())

	buf.Reset()
	require.NoError(t, Render(&buf, FormatYAML, items))
	assert.Equal(t, "- id: m1\n  title: Heat\n  type: Movies\n", buf.String())

	assert.Error(t, Render(&buf, "xml", items))
}
