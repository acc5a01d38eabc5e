package directus

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// TokenSource supplies the bearer token for each request. An empty token
// means the request is sent unauthenticated.
type TokenSource interface {
	Token() string
}

// Client represents a Directus API client
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	userAgent  string
	requestIDs bool
	logger     zerolog.Logger
}

// NewClient creates a new Directus client
func NewClient(baseURL string, tokens TokenSource, logger zerolog.Logger, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, fmt.Errorf("%w: directus URL is required", ErrInvalidConfig)
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid directus URL %q", ErrInvalidConfig, baseURL)
	}
	if tokens == nil {
		return nil, fmt.Errorf("%w: token source is required", ErrInvalidConfig)
	}

	client := &Client{
		baseURL:    baseURL,
		tokens:     tokens,
		httpClient: &http.Client{},
		userAgent:  "reelmark",
		logger:     logger,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// BaseURL returns the API root the client talks to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AssetURL builds the URL of a stored file. It is never fetched by the client.
func (c *Client) AssetURL(fileID string) string {
	return fmt.Sprintf("%s/assets/%s", c.baseURL, url.PathEscape(fileID))
}

// call describes a single API request
type call struct {
	op       string
	fallback string
	method   string
	path     string
	query    url.Values
	body     any
	out      any
}

// envelope is the {data: ...} wrapper used by every Directus response
type envelope[T any] struct {
	Data T `json:"data"`
}

// do performs an HTTP request with authentication and converts failures into *Error
func (c *Client) do(ctx context.Context, cl call) error {
	endpoint := c.baseURL + cl.path
	if len(cl.query) > 0 {
		endpoint += "?" + cl.query.Encode()
	}

	var reader io.Reader
	if cl.body != nil {
		payload, err := json.Marshal(cl.body)
		if err != nil {
			return c.fail(cl, 0, fmt.Errorf("failed to encode request body: %w", err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, endpoint, reader)
	if err != nil {
		return c.fail(cl, 0, fmt.Errorf("failed to create request: %w", err))
	}

	req.Header.Set("Accept", "application/json")
	if cl.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if token := c.tokens.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if c.requestIDs {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}

	c.logger.Debug().
		Str("op", cl.op).
		Str("method", cl.method).
		Str("path", cl.path).
		Msg("Making Directus API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.fail(cl, 0, fmt.Errorf("%w: %w", ErrNoConnection, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.fail(cl, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{
			StatusCode: resp.StatusCode,
			Message:    firstErrorMessage(body),
			Body:       string(body),
		}
		return c.fail(cl, resp.StatusCode, apiErr)
	}

	if cl.out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, cl.out); err != nil {
		return c.fail(cl, resp.StatusCode, fmt.Errorf("failed to parse response: %w", err))
	}

	return nil
}

// fail logs the underlying cause and wraps it into an *Error carrying a display message
func (c *Client) fail(cl call, status int, cause error) error {
	message := cl.fallback
	if apiErr, ok := cause.(*APIError); ok && apiErr.Message != "" {
		message = apiErr.Message
	}

	c.logger.Error().
		Err(cause).
		Str("op", cl.op).
		Str("method", cl.method).
		Str("path", cl.path).
		Int("status", status).
		Msg("Directus API request failed")

	return &Error{
		Op:         cl.op,
		Message:    message,
		StatusCode: status,
		Err:        cause,
	}
}

// Ping checks that the server is reachable
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, call{
		op:       "ping",
		fallback: "Failed to reach server",
		method:   http.MethodGet,
		path:     "/server/ping",
	})
}
