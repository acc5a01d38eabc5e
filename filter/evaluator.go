package filter

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/reelmark/media"
)

// EvaluatorOption configures an evaluator
type EvaluatorOption func(*ConcurrentEvaluator)

// WithWorkers sets the number of worker goroutines
func WithWorkers(workers int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if workers > 0 {
			e.workerCount = workers
		}
	}
}

// WithBatchSize sets the smallest chunk handed to a worker
func WithBatchSize(size int) EvaluatorOption {
	return func(e *ConcurrentEvaluator) {
		if size > 0 {
			e.batchSize = size
		}
	}
}

// ConcurrentEvaluator splits large item lists into chunks evaluated in parallel
type ConcurrentEvaluator struct {
	workerCount int
	batchSize   int
}

// NewConcurrentEvaluator creates a new concurrent evaluator
func NewConcurrentEvaluator(opts ...EvaluatorOption) *ConcurrentEvaluator {
	e := &ConcurrentEvaluator{
		workerCount: runtime.GOMAXPROCS(0),
		batchSize:   100,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate returns the items matching filter, preserving input order
func (e *ConcurrentEvaluator) Evaluate(ctx context.Context, filter CompiledFilter, items []media.Item) ([]media.Item, error) {
	if len(items) < e.batchSize {
		return evaluateSequential(filter, items), nil
	}

	chunkSize := max(len(items)/e.workerCount, e.batchSize)
	chunks := make([][]media.Item, (len(items)+chunkSize-1)/chunkSize)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workerCount)
	for i := range chunks {
		start := i * chunkSize
		end := min(start+chunkSize, len(items))
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			chunks[i] = evaluateSequential(filter, items[start:end])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	matches := make([]media.Item, 0, len(items))
	for _, chunk := range chunks {
		matches = append(matches, chunk...)
	}
	return matches, nil
}

func evaluateSequential(filter Filter, items []media.Item) []media.Item {
	matches := make([]media.Item, 0, len(items))
	for _, item := range items {
		if filter.Evaluate(item) {
			matches = append(matches, item)
		}
	}
	return matches
}
