package filter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/reelmark/media"
)

func testItem() media.Item {
	created := time.Now().AddDate(-1, 0, 0)
	sort := 3
	return media.Item{
		ID:          "m1",
		Title:       "Heat",
		Genre:       "Crime, Thriller",
		Status:      "published",
		Description: "A heist in Los Angeles",
		MediaURL:    "https://youtu.be/abc",
		Sort:        &sort,
		DateCreated: &created,
		Collection:  media.Movies,
	}
}

func TestCompileFilter(t *testing.T) {
	tests := []struct {
		name       string
		expression string
		wantErr    bool
	}{
		{"valid expression", `hasGenre("crime")`, false},
		{"empty expression", "", true},
		{"invalid syntax", `hasGenre("unclosed`, true},
		{"unknown name", `Rating > 5`, true},
		{"type mismatch", `Title > 5`, true},
		{"non boolean", `Title`, true},
		{"complex expression", `isMovie() and daysSince(DateCreated) > 30 and HasMedia`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := CompileFilter(tt.expression)
			if tt.wantErr {
				require.Error(t, err)
				var compErr *CompilationError
				assert.ErrorAs(t, err, &compErr)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, filter)
		})
	}
}

func TestFilterEvaluation(t *testing.T) {
	item := testItem()
	show := media.Item{ID: "t1", Title: "The Wire", Genre: "Drama", Collection: media.TVShows}

	tests := []struct {
		name       string
		expression string
		item       media.Item
		expected   bool
	}{
		{"has genre", `hasGenre("thriller")`, item, true},
		{"missing genre", `hasGenre("comedy")`, item, false},
		{"title contains", `contains(Title, "HEA")`, item, true},
		{"collection helper", `isShow()`, show, true},
		{"type name", `Type == "TV_Shows"`, show, true},
		{"date comparison", `DateCreated < daysAgo(30)`, item, true},
		{"missing date is zero", `DateCreated.IsZero()`, show, true},
		{"sort", `Sort == 3`, item, true},
		{"media", `HasMedia and not isShow()`, item, true},
		{"raw item", `Item.Status == "published"`, item, true},
		{"genres list", `"crime" in Genres`, item, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			filter, err := CompileFilter(tt.expression)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, filter.Evaluate(tt.item), tt.expression)
		})
	}
}

func TestConvertShorthand(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`genre:"crime"`, `hasGenre("crime")`},
		{`title!:"heat"`, `not contains(Title, "heat")`},
		{`type:show AND status:"published"`, `isShow() and lower(Status) == lower("published")`},
		{`NOT type:movie OR added_after:"2024-01-01"`, `not isMovie() or DateCreated > parseDate("2024-01-01")`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.True(t, IsShorthand(tt.input))
			assert.Equal(t, tt.want, ConvertShorthand(tt.input))
		})
	}

	assert.False(t, IsShorthand(`hasGenre("crime")`))
}

func TestParseAndCreateFilter(t *testing.T) {
	all, err := ParseAndCreateFilter("  ")
	require.NoError(t, err)
	assert.True(t, all(media.Item{}))

	match, err := ParseAndCreateFilter(`genre:"crime" AND NOT type:show`)
	require.NoError(t, err)
	assert.True(t, match(testItem()))
	assert.False(t, match(media.Item{Genre: "Crime", Collection: media.TVShows}))

	_, err = ParseAndCreateFilter(`genre:`)
	assert.Error(t, err)
}

func TestConcurrentEvaluation(t *testing.T) {
	items := generateTestItems(1000)

	filter, err := CompileFilter(`hasGenre("drama") and Sort > 500`)
	require.NoError(t, err)

	matches, err := NewConcurrentEvaluator(WithWorkers(4), WithBatchSize(50)).Evaluate(context.Background(), filter, items)
	require.NoError(t, err)

	expected := evaluateSequential(filter, items)
	assert.Equal(t, expected, matches, "order is preserved")
	assert.NotEmpty(t, matches)
}

func TestConcurrentEvaluation_Cancelled(t *testing.T) {
	filter, err := CompileFilter(`true`)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewConcurrentEvaluator(WithBatchSize(10)).Evaluate(ctx, filter, generateTestItems(100))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFilterManager(t *testing.T) {
	manager := NewManager()
	ctx := context.Background()

	err := manager.RegisterFilters(map[string]string{
		"crime": `genre:"crime"`,
		"shows": `isShow()`,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"crime", "shows"}, manager.ListFilters())

	err = manager.RegisterFilters(map[string]string{"broken": `Title >`, "fine": `true`})
	assert.Error(t, err)
	_, ok := manager.GetFilter("fine")
	assert.False(t, ok, "nothing is registered when one preset fails")

	items := generateTestItems(20)
	matches, err := manager.EvaluateFilter(ctx, "shows", items)
	require.NoError(t, err)
	assert.Len(t, matches, 10)

	_, err = manager.EvaluateFilter(ctx, "missing", items)
	var unknown *UnknownPresetError
	assert.ErrorAs(t, err, &unknown)

	matches, err = manager.Evaluate(ctx, `Sort < 2`, items)
	require.NoError(t, err)
	assert.Len(t, matches, 2)
}

func TestCacheEffectiveness(t *testing.T) {
	compiler := NewExprCompiler(WithCache(2))

	first, err := compiler.Compile(`isMovie()`)
	require.NoError(t, err)
	second, err := compiler.Compile(` isMovie() `)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, compiler.Size())

	_, _ = compiler.Compile(`isShow()`)
	_, _ = compiler.Compile(`HasMedia`)
	assert.Equal(t, 2, compiler.Size(), "least recently used entry is evicted")

	compiler.Clear()
	assert.Equal(t, 0, compiler.Size())
}

func TestWithCustomFunctions(t *testing.T) {
	compiler := NewExprCompiler(WithCustomFunctions(map[string]any{
		"short": func(s string) bool { return len(s) < 5 },
	}))

	filter, err := compiler.Compile(`short(Title)`)
	require.NoError(t, err)
	assert.True(t, filter.Evaluate(media.Item{Title: "Heat"}))
	assert.False(t, filter.Evaluate(media.Item{Title: "The Wire"}))
}
