// Package filter compiles expr-language expressions into predicates over
// catalogue items.
//
// Expressions see the item's fields (Title, Genre, Genres, Status,
// Description, Type, DateCreated, DateUpdated, HasMedia, Sort, ID) and
// helpers such as contains, startsWith, hasGenre, isMovie, isShow,
// daysSince and daysAgo. A shorthand form is also accepted:
//
//	genre:"crime" AND NOT title:"heat"
//	type:show OR added_after:"2024-01-01"
package filter

import (
	"strings"

	"github.com/s0up4200/reelmark/media"
)

var defaultCompiler = NewExprCompiler(WithCache(64))

// CompileFilter compiles expression with the shared cached compiler
func CompileFilter(expression string) (CompiledFilter, error) {
	if IsShorthand(expression) {
		expression = ConvertShorthand(expression)
	}
	return defaultCompiler.Compile(expression)
}

// ParseAndCreateFilter returns a predicate for expression. An empty
// expression matches everything.
func ParseAndCreateFilter(expression string) (func(media.Item) bool, error) {
	if strings.TrimSpace(expression) == "" {
		return func(media.Item) bool { return true }, nil
	}

	filter, err := CompileFilter(expression)
	if err != nil {
		return nil, err
	}
	return filter.Evaluate, nil
}
