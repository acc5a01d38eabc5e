package directus

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterField(t *testing.T) {
	base := Filter{}.Field("user_id", Eq("u1"))
	withMovie := base.Field("movie_id", NotNull())

	assert.Len(t, base, 1, "Field must not mutate the receiver")
	assert.Equal(t, Filter{
		"user_id":  map[string]any{"_eq": "u1"},
		"movie_id": map[string]any{"_nnull": true},
	}, withMovie)
}

func TestAnd(t *testing.T) {
	a := Filter{}.Field("a", Eq(1))
	b := Filter{}.Field("b", Eq(2))

	assert.Nil(t, And())
	assert.Equal(t, a, And(a, nil, Filter{}))
	assert.Equal(t, Filter{"_and": []Filter{a, b}}, And(a, b))
}

func TestParamsValues(t *testing.T) {
	v, err := Params{
		Filter: Filter{}.Field("user_id", Eq("u1")),
		Fields: []string{"id", "title"},
		Sort:   []string{"-date_created"},
		Search: "heat",
		Limit:  25,
	}.Values()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(v.Get("filter")), &decoded))
	assert.Equal(t, map[string]any{"user_id": map[string]any{"_eq": "u1"}}, decoded)
	assert.Equal(t, "id,title", v.Get("fields"))
	assert.Equal(t, "-date_created", v.Get("sort"))
	assert.Equal(t, "heat", v.Get("search"))
	assert.Equal(t, "25", v.Get("limit"))

	empty, err := Params{}.Values()
	require.NoError(t, err)
	assert.Equal(t, url.Values{}, empty)
}

func TestFirstErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"structured", `{"errors":[{"message":"Invalid payload."}]}`, "Invalid payload."},
		{"skips empty", `{"errors":[{"message":""},{"message":"second"}]}`, "second"},
		{"no errors", `{"data":{}}`, ""},
		{"not json", `<html>502</html>`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, firstErrorMessage([]byte(tt.body)))
		})
	}
}
