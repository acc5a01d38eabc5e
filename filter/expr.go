package filter

import (
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/s0up4200/reelmark/media"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	compiler   *exprCompiler
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*exprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *exprCompiler) {
		if size > 0 {
			c.cache = newLRUCache[CompiledFilter](size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *exprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) CachingCompiler {
	c := &exprCompiler{
		helperFuncs: createHelperFunctions(),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.envPool.New = func() any {
		return make(map[string]any, 32)
	}
	return c
}

// exprCompiler implements Compiler for expr-based filters
type exprCompiler struct {
	helperFuncs map[string]any
	cache       *lruCache[CompiledFilter]
	envPool     sync.Pool
}

// Compile compiles an expression into an executable filter
func (c *exprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	// Compile against a zero item so field types and unknown names are checked up front
	program, err := expr.Compile(expression,
		expr.Env(c.environment(make(map[string]any, 32), media.Item{})),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		compiler:   c,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}
	return filter, nil
}

// Clear removes all cached filters
func (c *exprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *exprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Len()
	}
	return 0
}

// Evaluate runs the filter against an item. Runtime errors count as no match.
func (f *exprFilter) Evaluate(item media.Item) bool {
	env := f.compiler.envPool.Get().(map[string]any)
	defer func() {
		clear(env)
		f.compiler.envPool.Put(env)
	}()

	result, err := expr.Run(f.program, f.compiler.environment(env, item))
	if err != nil {
		return false
	}
	return result.(bool)
}

// Expression returns the original expression
func (f *exprFilter) Expression() string {
	return f.expression
}

// environment fills env with the helpers and the item's fields
func (c *exprCompiler) environment(env map[string]any, item media.Item) map[string]any {
	maps.Copy(env, c.helperFuncs)

	env["Item"] = item
	env["ID"] = item.ID.String()
	env["Title"] = item.Title
	genres := splitGenres(item.Genre)
	env["Genre"] = item.Genre
	env["Genres"] = genres
	env["Status"] = item.Status
	env["Description"] = item.Description
	env["Thumbnail"] = item.Thumbnail
	env["MediaURL"] = item.MediaURL
	env["HasMedia"] = item.MediaURL != ""
	env["Type"] = item.Collection.String()
	env["Sort"] = derefInt(item.Sort)
	env["DateCreated"] = derefTime(item.DateCreated)
	env["DateUpdated"] = derefTime(item.DateUpdated)

	col := item.Collection
	env["isMovie"] = func() bool { return col == media.Movies }
	env["isShow"] = func() bool { return col == media.TVShows }
	env["hasGenre"] = func(genre string) bool {
		return slices.Contains(genres, strings.ToLower(strings.TrimSpace(genre)))
	}
	return env
}

// createHelperFunctions creates the static helper functions
func createHelperFunctions() map[string]any {
	return map[string]any{
		"daysSince": func(t time.Time) int {
			return int(time.Since(t).Hours() / 24)
		},
		"daysAgo": func(days int) time.Time {
			return time.Now().AddDate(0, 0, -days)
		},
		"monthsAgo": func(months int) time.Time {
			return time.Now().AddDate(0, -months, 0)
		},
		"parseDate": func(s string) time.Time {
			t, _ := time.Parse("2006-01-02", s)
			return t
		},
		"contains": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"startsWith": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"endsWith": func(str, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
		"now":   time.Now,
	}
}

// splitGenres turns "Crime, Drama" into lowercased genre names
func splitGenres(genre string) []string {
	var out []string
	for _, g := range strings.Split(genre, ",") {
		if g = strings.ToLower(strings.TrimSpace(g)); g != "" {
			out = append(out, g)
		}
	}
	return out
}

func derefInt(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func derefTime(p *time.Time) time.Time {
	if p == nil {
		return time.Time{}
	}
	return *p
}
