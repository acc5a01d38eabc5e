package directus

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

func itemsPath(collection string) string {
	return "/items/" + url.PathEscape(collection)
}

func itemPath(collection, id string) string {
	return itemsPath(collection) + "/" + url.PathEscape(id)
}

// List fetches every item of a collection. An empty collection is an empty slice.
func List[T any](ctx context.Context, c *Client, collection string) ([]T, error) {
	return Query[T](ctx, c, collection, Params{})
}

// Query fetches the items of a collection matching params
func Query[T any](ctx context.Context, c *Client, collection string, params Params) ([]T, error) {
	query, err := params.Values()
	if err != nil {
		return nil, fmt.Errorf("failed to encode query for %s: %w", collection, err)
	}

	var resp envelope[[]T]
	err = c.do(ctx, call{
		op:       "list " + collection,
		fallback: fmt.Sprintf("Failed to fetch %s", collection),
		method:   http.MethodGet,
		path:     itemsPath(collection),
		query:    query,
		out:      &resp,
	})
	if err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return []T{}, nil
	}
	return resp.Data, nil
}

// Get fetches a single item by ID. A missing item is reported as a fetch error.
func Get[T any](ctx context.Context, c *Client, collection, id string) (T, error) {
	var resp envelope[T]
	err := c.do(ctx, call{
		op:       "get " + collection,
		fallback: fmt.Sprintf("Failed to fetch %s item", collection),
		method:   http.MethodGet,
		path:     itemPath(collection, id),
		out:      &resp,
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return resp.Data, nil
}

// Create adds a new item to a collection and returns the stored record
func Create[T any](ctx context.Context, c *Client, collection string, partial any) (T, error) {
	var resp envelope[T]
	err := c.do(ctx, call{
		op:       "create " + collection,
		fallback: fmt.Sprintf("Failed to create %s item", collection),
		method:   http.MethodPost,
		path:     itemsPath(collection),
		body:     partial,
		out:      &resp,
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return resp.Data, nil
}

// Update merges partial into an existing item; fields not present are left unchanged
func Update[T any](ctx context.Context, c *Client, collection, id string, partial any) (T, error) {
	var resp envelope[T]
	err := c.do(ctx, call{
		op:       "update " + collection,
		fallback: fmt.Sprintf("Failed to update %s item", collection),
		method:   http.MethodPatch,
		path:     itemPath(collection, id),
		body:     partial,
		out:      &resp,
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return resp.Data, nil
}

// Delete removes an item from a collection
func Delete(ctx context.Context, c *Client, collection, id string) error {
	return c.do(ctx, call{
		op:       "delete " + collection,
		fallback: fmt.Sprintf("Failed to delete %s item", collection),
		method:   http.MethodDelete,
		path:     itemPath(collection, id),
	})
}
