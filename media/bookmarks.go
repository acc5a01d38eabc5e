package media

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/s0up4200/reelmark/directus"
)

// BookmarksCollection is the collection holding bookmark rows
const BookmarksCollection = "Bookmarks"

// DefaultConcurrency bounds concurrent item fetches in Resolve
const DefaultConcurrency = 5

// Bookmarks tracks which items a user has bookmarked.
//
// Uniqueness of (user, collection, item) is not enforced here or by the
// server: Create does not check for an existing row and Remove is a lookup
// followed by a delete, so concurrent callers can race.
type Bookmarks struct {
	client      *directus.Client
	catalog     *Catalog
	logger      zerolog.Logger
	concurrency int
}

// NewBookmarks creates a new Bookmarks service
func NewBookmarks(client *directus.Client, catalog *Catalog, logger zerolog.Logger) *Bookmarks {
	return &Bookmarks{
		client:      client,
		catalog:     catalog,
		logger:      logger,
		concurrency: DefaultConcurrency,
	}
}

// SetConcurrency sets how many items Resolve fetches at once
func (b *Bookmarks) SetConcurrency(n int) {
	if n > 0 {
		b.concurrency = n
	}
}

func userFilter(userID string) directus.Filter {
	return directus.Filter{}.Field("user_id", directus.Eq(userID))
}

// find returns the bookmark rows matching filter
func (b *Bookmarks) find(ctx context.Context, filter directus.Filter) ([]Bookmark, error) {
	return directus.Query[Bookmark](ctx, b.client, BookmarksCollection, directus.Params{
		Filter: filter,
		Limit:  -1,
	})
}

// ListForUser returns the IDs of the items of col bookmarked by userID
func (b *Bookmarks) ListForUser(ctx context.Context, userID string, col Collection) ([]string, error) {
	if err := check(col, userID); err != nil {
		return nil, err
	}

	rows, err := b.find(ctx, userFilter(userID).Field(col.BookmarkField(), directus.NotNull()))
	if err != nil {
		return nil, directus.WithFallback(err, "list bookmarks", "Failed to fetch bookmarked items")
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if id, ok := row.Target(col); ok {
			ids = append(ids, id.String())
		}
	}
	return ids, nil
}

// IsBookmarked reports whether userID has bookmarked itemID in col
func (b *Bookmarks) IsBookmarked(ctx context.Context, itemID string, col Collection, userID string) (bool, error) {
	if err := check(col, itemID, userID); err != nil {
		return false, err
	}

	rows, err := b.find(ctx, userFilter(userID).Field(col.BookmarkField(), directus.Eq(itemID)))
	if err != nil {
		return false, directus.WithFallback(err, "check bookmark", "Failed to check bookmark status")
	}
	return len(rows) > 0, nil
}

// Create inserts a bookmark row. It does not check for an existing one.
func (b *Bookmarks) Create(ctx context.Context, itemID string, col Collection, userID string) (Bookmark, error) {
	if err := check(col, itemID, userID); err != nil {
		return Bookmark{}, err
	}

	payload := newBookmarkPayload(itemID, col, userID)
	bookmark, err := directus.Create[Bookmark](ctx, b.client, BookmarksCollection, payload)
	if err != nil {
		return Bookmark{}, directus.WithFallback(err, "create bookmark", "Failed to create bookmark")
	}

	b.logger.Info().
		Str("item", itemID).
		Str("collection", col.String()).
		Str("user", userID).
		Msg("Bookmark added")
	return bookmark, nil
}

// Remove deletes the first bookmark row matching (userID, col, itemID).
// It fails with ErrBookmarkNotFound when there is none.
func (b *Bookmarks) Remove(ctx context.Context, itemID string, userID string, col Collection) error {
	if err := check(col, itemID, userID); err != nil {
		return err
	}

	rows, err := b.find(ctx, userFilter(userID).Field(col.BookmarkField(), directus.Eq(itemID)))
	if err != nil {
		return directus.WithFallback(err, "remove bookmark", "Failed to find bookmark")
	}
	if len(rows) == 0 {
		return &directus.Error{Op: "remove bookmark", Message: "No bookmark found", Err: ErrBookmarkNotFound}
	}

	if err := directus.Delete(ctx, b.client, BookmarksCollection, rows[0].ID.String()); err != nil {
		return directus.WithFallback(err, "remove bookmark", "Failed to delete bookmark")
	}

	b.logger.Info().
		Str("item", itemID).
		Str("collection", col.String()).
		Str("user", userID).
		Msg("Bookmark removed")
	return nil
}

// Toggle flips the bookmark state of an item and returns the new state
func (b *Bookmarks) Toggle(ctx context.Context, itemID string, col Collection, userID string) (bool, error) {
	bookmarked, err := b.IsBookmarked(ctx, itemID, col, userID)
	if err != nil {
		return false, err
	}

	if bookmarked {
		if err := b.Remove(ctx, itemID, userID, col); err != nil {
			return true, err
		}
		return false, nil
	}

	if _, err := b.Create(ctx, itemID, col, userID); err != nil {
		return false, err
	}
	return true, nil
}

// Resolve lists a user's bookmarks in the given collections (both when none
// are given) and fetches the items they point at. Items without a title are
// skipped. Any fetch failure fails the whole call.
func (b *Bookmarks) Resolve(ctx context.Context, userID string, cols ...Collection) ([]BookmarkedItem, error) {
	if len(cols) == 0 {
		cols = Collections
	}

	type ref struct {
		id  string
		col Collection
	}
	var refs []ref
	for _, col := range cols {
		ids, err := b.ListForUser(ctx, userID, col)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			refs = append(refs, ref{id: id, col: col})
		}
	}

	items := make([]*Item, len(refs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)

	for i, r := range refs {
		g.Go(func() error {
			item, err := b.catalog.Get(gctx, r.col, r.id)
			if err != nil {
				return err
			}
			items[i] = &item
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, directus.WithMessage(err, "resolve bookmarks", "Failed to load bookmarks. Please try again later.")
	}

	results := make([]BookmarkedItem, 0, len(items))
	for i, item := range items {
		if item == nil || item.ID == "" || item.Title == "" {
			b.logger.Warn().
				Str("id", refs[i].id).
				Str("collection", refs[i].col.String()).
				Msg("Skipping bookmarked item with invalid structure")
			continue
		}
		results = append(results, BookmarkedItem{
			ID:         item.ID,
			Title:      item.Title,
			Thumbnail:  item.Thumbnail,
			Collection: refs[i].col,
		})
	}
	return results, nil
}

// check rejects an invalid collection or empty IDs before any request is made
func check(col Collection, ids ...string) error {
	if !col.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidCollection, int(col))
	}
	for _, id := range ids {
		if strings.TrimSpace(id) == "" {
			return ErrMissingID
		}
	}
	return nil
}

// IsNotFound reports whether err means the bookmark to remove did not exist
func IsNotFound(err error) bool {
	return errors.Is(err, ErrBookmarkNotFound)
}
