package directus

import (
	"context"
	"net/http"
)

// Login exchanges credentials for an access token
func (c *Client) Login(ctx context.Context, creds Credentials) (AuthTokens, error) {
	var resp envelope[AuthTokens]
	err := c.do(ctx, call{
		op:       "login",
		fallback: "Login failed",
		method:   http.MethodPost,
		path:     "/auth/login",
		body:     creds,
		out:      &resp,
	})
	if err != nil {
		return AuthTokens{}, err
	}
	return resp.Data, nil
}

// Logout invalidates the current session on the server
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, call{
		op:       "logout",
		fallback: "Logout failed",
		method:   http.MethodPost,
		path:     "/auth/logout",
	})
}

// CreateUser registers a new user
func (c *Client) CreateUser(ctx context.Context, user NewUser) error {
	return c.do(ctx, call{
		op:       "register",
		fallback: "Registration failed",
		method:   http.MethodPost,
		path:     "/users",
		body:     user,
	})
}

// CurrentUser fetches the user the current token belongs to
func (c *Client) CurrentUser(ctx context.Context) (User, error) {
	var resp envelope[User]
	err := c.do(ctx, call{
		op:       "current user",
		fallback: "Failed to fetch current user",
		method:   http.MethodGet,
		path:     "/users/me",
		out:      &resp,
	})
	if err != nil {
		return User{}, err
	}
	return resp.Data, nil
}

// UpdateCurrentUser applies a partial update to the current user
func (c *Client) UpdateCurrentUser(ctx context.Context, changes map[string]any) (User, error) {
	var resp envelope[User]
	err := c.do(ctx, call{
		op:       "update current user",
		fallback: "Failed to update profile",
		method:   http.MethodPatch,
		path:     "/users/me",
		body:     changes,
		out:      &resp,
	})
	if err != nil {
		return User{}, err
	}
	return resp.Data, nil
}
