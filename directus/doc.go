// Package directus provides a client for the Directus REST API.
//
// Every call issues one HTTP request. The bearer token is read from an
// injected TokenSource on each request; there is no retry or token refresh.
//
// # Usage
//
//	store, _ := session.Open(ctx, session.NewMemoryBackend(), logger)
//	client, err := directus.NewClient("http://localhost:8055", store, logger)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	movies, err := directus.List[media.Item](ctx, client, "Movies")
//
// Collection CRUD is exposed as generic package functions (List, Query, Get,
// Create, Update, Delete) since Go methods cannot take type parameters.
//
// # Error Handling
//
// Every failure is returned as *Error, whose Message is suitable for display:
// the first structured message from the response body when the server sent
// one, otherwise a per-operation fallback such as "Failed to fetch Movies".
// Non-2xx responses wrap an *APIError with the status code and raw body:
//
//	var apiErr *directus.APIError
//	if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
//		// token expired or missing
//	}
package directus
