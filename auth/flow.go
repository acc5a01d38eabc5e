package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/s0up4200/reelmark/directus"
	"github.com/s0up4200/reelmark/session"
)

// DefaultRole is the role assigned to newly registered users
const DefaultRole = "f9e46dbd-ef75-4284-882b-663e64e368bc"

// Flow implements login, registration and logout on top of a session store
type Flow struct {
	client      *directus.Client
	store       *session.Store
	logger      zerolog.Logger
	defaultRole string
	onLoggedOut func()
}

// NewFlow creates a new auth flow. An empty role falls back to DefaultRole.
func NewFlow(client *directus.Client, store *session.Store, logger zerolog.Logger, defaultRole string) *Flow {
	if defaultRole == "" {
		defaultRole = DefaultRole
	}
	return &Flow{
		client:      client,
		store:       store,
		logger:      logger,
		defaultRole: defaultRole,
	}
}

// SetOnLoggedOut registers a hook that runs after every logout
func (f *Flow) SetOnLoggedOut(fn func()) {
	f.onLoggedOut = fn
}

// Login authenticates and stores the access token. Remote failures are
// reported as "Login failed" without the server's detail.
func (f *Flow) Login(ctx context.Context, email, password string) error {
	if err := validateEmail(email); err != nil {
		return err
	}
	if err := validatePassword(password); err != nil {
		return err
	}

	tokens, err := f.client.Login(ctx, directus.Credentials{
		Email:    strings.TrimSpace(email),
		Password: password,
	})
	if err != nil {
		f.logger.Error().Err(err).Str("email", email).Msg("Login request failed")
		return directus.WithMessage(err, "login", "Login failed")
	}
	if tokens.AccessToken == "" {
		f.logger.Error().Str("email", email).Msg("Login response carried no access token")
		return &directus.Error{Op: "login", Message: "Login failed"}
	}

	if err := f.store.Set(ctx, tokens.AccessToken); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	f.logger.Info().Str("email", email).Msg("Logged in")
	return nil
}

// Register creates a user with the default role. It does not log in.
func (f *Flow) Register(ctx context.Context, p Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}

	err := f.client.CreateUser(ctx, directus.NewUser{
		Email:     strings.TrimSpace(p.Email),
		Password:  p.Password,
		FirstName: strings.TrimSpace(p.FirstName),
		LastName:  strings.TrimSpace(p.LastName),
		Role:      f.defaultRole,
	})
	if err != nil {
		return directus.WithFallback(err, "register", "Registration failed")
	}

	f.logger.Info().Str("email", p.Email).Msg("User registered")
	return nil
}

// Logout ends the session. The local session is always cleared, even when
// ctx is already cancelled; a failed remote call is logged and not returned.
func (f *Flow) Logout(ctx context.Context) (err error) {
	defer func() {
		if clearErr := f.store.Clear(context.WithoutCancel(ctx)); clearErr != nil {
			err = clearErr
		}
		if f.onLoggedOut != nil {
			f.onLoggedOut()
		}
	}()

	if remoteErr := f.client.Logout(ctx); remoteErr != nil {
		f.logger.Warn().Err(remoteErr).Msg("Remote logout failed, clearing local session anyway")
		return nil
	}

	f.logger.Info().Msg("Logged out")
	return nil
}

// CurrentUser fetches the logged-in user. The record is not kept beyond the call.
func (f *Flow) CurrentUser(ctx context.Context) (directus.User, error) {
	return f.client.CurrentUser(ctx)
}

// UpdateProfile sends changes to the current user. No changes means no
// request beyond fetching the current user.
func (f *Flow) UpdateProfile(ctx context.Context, changes map[string]any) (directus.User, error) {
	if len(changes) == 0 {
		return f.CurrentUser(ctx)
	}

	return f.client.UpdateCurrentUser(ctx, changes)
}
