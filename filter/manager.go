package filter

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/s0up4200/reelmark/media"
)

// Manager holds named filter presets
type Manager struct {
	compiler  Compiler
	evaluator Evaluator
	filters   map[string]CompiledFilter
	mu        sync.RWMutex
}

// ManagerOption configures a filter manager
type ManagerOption func(*Manager)

// WithCompiler sets a custom compiler
func WithCompiler(compiler Compiler) ManagerOption {
	return func(m *Manager) {
		m.compiler = compiler
	}
}

// WithEvaluator sets a custom evaluator
func WithEvaluator(evaluator Evaluator) ManagerOption {
	return func(m *Manager) {
		m.evaluator = evaluator
	}
}

// NewManager creates a new filter manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		compiler:  NewExprCompiler(WithCache(100)),
		evaluator: NewConcurrentEvaluator(),
		filters:   make(map[string]CompiledFilter),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterFilter registers a new filter or replaces an existing one.
// Shorthand expressions are accepted.
func (m *Manager) RegisterFilter(name, expression string) error {
	filter, err := m.compile(expression)
	if err != nil {
		return fmt.Errorf("failed to compile filter '%s': %w", name, err)
	}

	m.mu.Lock()
	m.filters[name] = filter
	m.mu.Unlock()
	return nil
}

// RegisterFilters registers all filters or none of them
func (m *Manager) RegisterFilters(filters map[string]string) error {
	compiled := make(map[string]CompiledFilter, len(filters))
	for name, expression := range filters {
		filter, err := m.compile(expression)
		if err != nil {
			return fmt.Errorf("failed to compile filter '%s': %w", name, err)
		}
		compiled[name] = filter
	}

	m.mu.Lock()
	maps.Copy(m.filters, compiled)
	m.mu.Unlock()
	return nil
}

// GetFilter returns a compiled filter by name
func (m *Manager) GetFilter(name string) (CompiledFilter, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	filter, ok := m.filters[name]
	return filter, ok
}

// ListFilters returns the registered names in sorted order
func (m *Manager) ListFilters() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Sorted(maps.Keys(m.filters))
}

// EvaluateFilter applies a registered filter to items
func (m *Manager) EvaluateFilter(ctx context.Context, name string, items []media.Item) ([]media.Item, error) {
	filter, ok := m.GetFilter(name)
	if !ok {
		return nil, &UnknownPresetError{Name: name}
	}
	return m.evaluator.Evaluate(ctx, filter, items)
}

// Evaluate compiles expression and applies it to items
func (m *Manager) Evaluate(ctx context.Context, expression string, items []media.Item) ([]media.Item, error) {
	filter, err := m.compile(expression)
	if err != nil {
		return nil, err
	}
	return m.evaluator.Evaluate(ctx, filter, items)
}

func (m *Manager) compile(expression string) (CompiledFilter, error) {
	if IsShorthand(expression) {
		expression = ConvertShorthand(expression)
	}
	return m.compiler.Compile(expression)
}
