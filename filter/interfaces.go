package filter

import (
	"context"

	"github.com/s0up4200/reelmark/media"
)

// Filter decides whether an item matches
type Filter interface {
	// Evaluate checks if an item matches the filter criteria
	Evaluate(item media.Item) bool
}

// CompiledFilter represents a pre-compiled filter ready for evaluation
type CompiledFilter interface {
	Filter

	// Expression returns the original filter expression
	Expression() string
}

// Compiler compiles filter expressions into executable filters
type Compiler interface {
	Compile(expression string) (CompiledFilter, error)
}

// CachingCompiler provides caching for compiled filters
type CachingCompiler interface {
	Compiler

	// Clear removes all cached filters
	Clear()

	// Size returns the number of cached filters
	Size() int
}

// Evaluator evaluates a filter against a set of items
type Evaluator interface {
	Evaluate(ctx context.Context, filter CompiledFilter, items []media.Item) ([]media.Item, error)
}
