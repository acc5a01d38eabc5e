package media

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/reelmark/directus"
)

// Catalog reads movies and TV shows
type Catalog struct {
	client *directus.Client
	logger zerolog.Logger
}

// NewCatalog creates a new Catalog
func NewCatalog(client *directus.Client, logger zerolog.Logger) *Catalog {
	return &Catalog{
		client: client,
		logger: logger,
	}
}

// List fetches every item of a collection. An empty collection is not an error.
func (c *Catalog) List(ctx context.Context, col Collection) ([]Item, error) {
	if !col.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCollection, int(col))
	}

	items, err := directus.List[Item](ctx, c.client, col.String())
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Collection = col
	}

	c.logger.Debug().Msgf("Retrieved %d items from %s", len(items), col)
	return items, nil
}

// Get fetches a single item
func (c *Catalog) Get(ctx context.Context, col Collection, id string) (Item, error) {
	if !col.Valid() {
		return Item{}, fmt.Errorf("%w: %d", ErrInvalidCollection, int(col))
	}
	if strings.TrimSpace(id) == "" {
		return Item{}, fmt.Errorf("%w: item id", ErrMissingID)
	}

	item, err := directus.Get[Item](ctx, c.client, col.String(), id)
	if err != nil {
		return Item{}, err
	}
	item.Collection = col
	return item, nil
}

// Search returns the items whose title contains query, ignoring case.
// An empty query matches everything.
func (c *Catalog) Search(ctx context.Context, col Collection, query string) ([]Item, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	return c.Filter(ctx, col, func(item Item) bool {
		return strings.Contains(strings.ToLower(item.Title), query)
	})
}

// Filter returns the items of col for which match returns true
func (c *Catalog) Filter(ctx context.Context, col Collection, match func(Item) bool) ([]Item, error) {
	items, err := c.List(ctx, col)
	if err != nil {
		return nil, err
	}

	results := make([]Item, 0, len(items))
	for _, item := range items {
		if match(item) {
			results = append(results, item)
		}
	}
	return results, nil
}

// ListAll fetches both collections concurrently and returns their items
// sorted by title within each collection.
func (c *Catalog) ListAll(ctx context.Context, cols ...Collection) (map[Collection][]Item, error) {
	if len(cols) == 0 {
		cols = Collections
	}

	results := make([][]Item, len(cols))
	g, ctx := errgroup.WithContext(ctx)
	for i, col := range cols {
		g.Go(func() error {
			items, err := c.List(ctx, col)
			if err != nil {
				return err
			}
			SortByTitle(items)
			results[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[Collection][]Item, len(cols))
	for i, col := range cols {
		out[col] = results[i]
	}
	return out, nil
}

// SortByTitle sorts items case-insensitively by title
func SortByTitle(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return strings.ToLower(items[i].Title) < strings.ToLower(items[j].Title)
	})
}
