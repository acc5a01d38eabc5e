package auth_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/s0up4200/reelmark/auth"
	"github.com/s0up4200/reelmark/cmstest"
	"github.com/s0up4200/reelmark/directus"
	"github.com/s0up4200/reelmark/media"
	"github.com/s0up4200/reelmark/session"
)

type env struct {
	srv       *cmstest.Server
	backend   *session.MemoryBackend
	store     *session.Store
	client    *directus.Client
	flow      *auth.Flow
	bookmarks *media.Bookmarks
}

func newEnv(t *testing.T) *env {
	t.Helper()

	srv := cmstest.New(t)
	srv.AddUser("u1", "a@b.com", "secret1", map[string]any{
		"first_name": "Ada",
		"last_name":  "Byron",
		"role":       "r1",
		"theme":      nil,
	})
	srv.Seed("Movies", map[string]any{"id": "m1", "title": "Heat"})
	srv.Seed("TV_Shows")
	srv.Seed(media.BookmarksCollection)

	backend := session.NewMemoryBackend()
	store, err := session.Open(context.Background(), backend, zerolog.Nop())
	require.NoError(t, err)

	client, err := directus.NewClient(srv.URL, store, zerolog.Nop())
	require.NoError(t, err)

	catalog := media.NewCatalog(client, zerolog.Nop())
	return &env{
		srv:       srv,
		backend:   backend,
		store:     store,
		client:    client,
		flow:      auth.NewFlow(client, store, zerolog.Nop(), ""),
		bookmarks: media.NewBookmarks(client, catalog, zerolog.Nop()),
	}
}

func TestFlow_LoginValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"empty email", "", "secret1"},
		{"malformed email", "not-an-email", "secret1"},
		{"empty password", "a@b.com", ""},
		{"short password", "a@b.com", "12345"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := e.flow.Login(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, auth.ErrValidation)
		})
	}

	assert.Empty(t, e.srv.Requests(), "validation must not reach the network")
}

func TestFlow_Login(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	var seen []string
	cancel := e.store.Subscribe(func(token string) { seen = append(seen, token) })
	defer cancel()

	require.NoError(t, e.flow.Login(ctx, "a@b.com", "secret1"))
	assert.True(t, e.store.Authenticated())
	assert.Equal(t, []string{"", e.store.Token()}, seen)

	stored, ok, err := e.backend.Load(ctx, session.TokenKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, e.store.Token(), stored)

	_, err = e.flow.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+e.store.Token(), e.srv.LastRequest().Header.Get("Authorization"))
}

func TestFlow_LoginFailure(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	err := e.flow.Login(ctx, "a@b.com", "wrong-password")
	require.Error(t, err)
	assert.Equal(t, "Login failed", directus.DisplayMessage(err))
	assert.Equal(t, http.StatusUnauthorized, directus.StatusCode(err))
	assert.False(t, e.store.Authenticated())

	e.srv.Fail(http.MethodPost, "/auth/login", http.StatusOK, "")
	err = e.flow.Login(ctx, "a@b.com", "secret1")
	require.Error(t, err, "a response without an access token is a failure")
	assert.Equal(t, "Login failed", directus.DisplayMessage(err))
	assert.False(t, e.store.Authenticated())
}

func TestFlow_Register(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	err := e.flow.Register(ctx, auth.Profile{Email: "new@b.com", Password: "secret1", FirstName: "New"})
	assert.ErrorIs(t, err, auth.ErrValidation)

	profile := auth.Profile{Email: "new@b.com", Password: "secret1", FirstName: "New", LastName: "User"}
	require.NoError(t, e.flow.Register(ctx, profile))
	assert.False(t, e.store.Authenticated(), "registering does not log in")

	record := e.srv.User("new@b.com")
	require.NotNil(t, record)
	assert.Equal(t, auth.DefaultRole, record["role"])
	assert.Equal(t, "New", record["first_name"])
	assert.Equal(t, "User", record["last_name"])

	err = e.flow.Register(ctx, profile)
	require.Error(t, err)
	assert.Contains(t, directus.DisplayMessage(err), "has to be unique")

	e.srv.Fail(http.MethodPost, "/users", http.StatusInternalServerError, "")
	err = e.flow.Register(ctx, auth.Profile{Email: "x@b.com", Password: "secret1", FirstName: "X", LastName: "Y"})
	assert.Equal(t, "Registration failed", directus.DisplayMessage(err))
}

func TestFlow_Logout(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{"remote succeeds", 0},
		{"remote fails", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t)
			ctx := context.Background()

			loggedOut := false
			e.flow.SetOnLoggedOut(func() { loggedOut = true })

			require.NoError(t, e.flow.Login(ctx, "a@b.com", "secret1"))
			_, err := e.flow.CurrentUser(ctx)
			require.NoError(t, err)

			if tt.status != 0 {
				e.srv.Fail(http.MethodPost, "/auth/logout", tt.status, "")
			}

			require.NoError(t, e.flow.Logout(ctx))
			assert.True(t, loggedOut)
			assert.False(t, e.store.Authenticated())

			_, ok, err := e.backend.Load(ctx, session.TokenKey)
			require.NoError(t, err)
			assert.False(t, ok)
			_, ok, err = e.backend.Load(ctx, session.UserDataKey)
			require.NoError(t, err)
			assert.False(t, ok)

			last := e.srv.LastRequest()
			assert.Equal(t, "/auth/logout", last.Path)
			assert.Empty(t, last.Body)
		})
	}
}

func TestFlow_LogoutCancelledContext(t *testing.T) {
	srv := cmstest.New(t)
	srv.AddUser("u1", "a@b.com", "secret1", nil)

	mr := miniredis.RunT(t)
	backend := session.NewRedisBackend(mr.Addr(), "", 0, "reelmark")
	t.Cleanup(func() { backend.Close() })

	store, err := session.Open(context.Background(), backend, zerolog.Nop())
	require.NoError(t, err)
	client, err := directus.NewClient(srv.URL, store, zerolog.Nop())
	require.NoError(t, err)
	flow := auth.NewFlow(client, store, zerolog.Nop(), "")

	require.NoError(t, flow.Login(context.Background(), "a@b.com", "secret1"))
	require.True(t, mr.Exists("reelmark:"+session.TokenKey))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, flow.Logout(ctx))
	assert.False(t, store.Authenticated())
	assert.False(t, mr.Exists("reelmark:"+session.TokenKey), "persisted token is removed")

	reopened, err := session.Open(context.Background(), backend, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, reopened.Authenticated())
}

func TestFlow_CurrentUserIsNotPersisted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.flow.Login(ctx, "a@b.com", "secret1"))

	user, err := e.flow.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	_, ok, err := e.backend.Load(ctx, session.UserDataKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFlow_UpdateProfile(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	require.NoError(t, e.flow.Login(ctx, "a@b.com", "secret1"))

	before := len(e.srv.Requests())
	user, err := e.flow.UpdateProfile(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.FirstName)
	assert.Len(t, e.srv.Requests(), before+1)
	assert.Equal(t, http.MethodGet, e.srv.LastRequest().Method)

	user, err = e.flow.UpdateProfile(ctx, map[string]any{"location": "London"})
	require.NoError(t, err)
	require.NotNil(t, user.Location)
	assert.Equal(t, "London", *user.Location)
	assert.JSONEq(t, `{"location":"London"}`, string(e.srv.LastRequest().Body))

	_, ok, err := e.backend.Load(ctx, session.UserDataKey)
	require.NoError(t, err)
	assert.False(t, ok, "user record is not persisted")

	e.srv.Fail(http.MethodPatch, "/users/me", http.StatusBadRequest, "")
	_, err = e.flow.UpdateProfile(ctx, map[string]any{"location": "Paris"})
	assert.Equal(t, "Failed to update profile", directus.DisplayMessage(err))
}

// Full round trip: login, bookmark a movie, check it, remove it, log out.
func TestScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	require.NoError(t, e.flow.Login(ctx, "a@b.com", "secret1"))
	user, err := e.flow.CurrentUser(ctx)
	require.NoError(t, err)
	require.Equal(t, "u1", user.ID)

	ids, err := e.bookmarks.ListForUser(ctx, user.ID, media.Movies)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.NotNil(t, ids)

	ok, err := e.bookmarks.IsBookmarked(ctx, "m1", media.Movies, user.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = e.bookmarks.Create(ctx, "m1", media.Movies, user.ID)
	require.NoError(t, err)

	ids, err = e.bookmarks.ListForUser(ctx, user.ID, media.Movies)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, ids)

	ok, err = e.bookmarks.IsBookmarked(ctx, "m1", media.Movies, user.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, e.bookmarks.Remove(ctx, "m1", user.ID, media.Movies))

	ok, err = e.bookmarks.IsBookmarked(ctx, "m1", media.Movies, user.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	err = e.bookmarks.Remove(ctx, "m1", user.ID, media.Movies)
	assert.True(t, errors.Is(err, media.ErrBookmarkNotFound))

	require.NoError(t, e.flow.Logout(ctx))
	assert.False(t, e.store.Authenticated())

	_, err = e.flow.CurrentUser(ctx)
	require.Error(t, err)
	assert.Empty(t, e.srv.LastRequest().Header.Get("Authorization"), "no bearer once logged out")
}
