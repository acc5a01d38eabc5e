package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingBackend struct {
	*MemoryBackend
	deleteErr error
}

func (f *failingBackend) Delete(ctx context.Context, key string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.MemoryBackend.Delete(ctx, key)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("requires backend", func(t *testing.T) {
		_, err := Open(ctx, nil, zerolog.Nop())
		assert.ErrorIs(t, err, ErrNoBackend)
	})

	t.Run("empty backend is unauthenticated", func(t *testing.T) {
		s, err := Open(ctx, NewMemoryBackend(), zerolog.Nop())
		require.NoError(t, err)
		assert.Empty(t, s.Token())
		assert.False(t, s.Authenticated())
	})

	t.Run("restores persisted token", func(t *testing.T) {
		backend := NewMemoryBackend()
		require.NoError(t, backend.Save(ctx, TokenKey, "persisted"))

		s, err := Open(ctx, backend, zerolog.Nop())
		require.NoError(t, err)
		assert.Equal(t, "persisted", s.Token())
	})
}

func TestStore_SetAndClear(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	s, err := Open(ctx, backend, zerolog.Nop())
	require.NoError(t, err)

	assert.ErrorIs(t, s.Set(ctx, ""), ErrEmptyToken)

	require.NoError(t, s.Set(ctx, "tok"))
	assert.Equal(t, "tok", s.Token())
	stored, ok, _ := backend.Load(ctx, TokenKey)
	assert.True(t, ok)
	assert.Equal(t, "tok", stored)

	// written by older releases
	require.NoError(t, backend.Save(ctx, UserDataKey, `{"id":"u1"}`))

	require.NoError(t, s.Clear(ctx))
	assert.Empty(t, s.Token())
	_, ok, _ = backend.Load(ctx, TokenKey)
	assert.False(t, ok)
	_, ok, _ = backend.Load(ctx, UserDataKey)
	assert.False(t, ok, "user data is cleared with the token")
}

func TestStore_ConcurrentSetAndClearAgree(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	s, err := Open(ctx, backend, zerolog.Nop())
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Set(ctx, fmt.Sprintf("tok-%d", i)))
		}()
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Clear(ctx))
		}()
	}
	wg.Wait()

	stored, _, err := backend.Load(ctx, TokenKey)
	require.NoError(t, err)
	assert.Equal(t, stored, s.Token(), "memory matches the persisted token")
}

func TestStore_ClearFailureStillClearsMemory(t *testing.T) {
	ctx := context.Background()
	backend := &failingBackend{MemoryBackend: NewMemoryBackend(), deleteErr: errors.New("disk gone")}
	s, err := Open(ctx, backend, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "tok"))

	err = s.Clear(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk gone")
	assert.Empty(t, s.Token())
}

func TestStore_Subscribe(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, NewMemoryBackend(), zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "first"))

	var mu sync.Mutex
	var seen []string
	cancel := s.Subscribe(func(token string) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, token)
	})

	require.NoError(t, s.Set(ctx, "second"))
	require.NoError(t, s.Clear(ctx))
	cancel()
	require.NoError(t, s.Set(ctx, "after-cancel"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"first", "second", ""}, seen)
}

func TestStore_SubscribeCancelKeepsOthers(t *testing.T) {
	ctx := context.Background()
	s, err := Open(ctx, NewMemoryBackend(), zerolog.Nop())
	require.NoError(t, err)

	var a, b int
	cancelA := s.Subscribe(func(string) { a++ })
	s.Subscribe(func(string) { b++ })
	cancelA()
	cancelA()

	require.NoError(t, s.Set(ctx, "x"))
	assert.Equal(t, 1, a)
	assert.Equal(t, 2, b)
}

func TestFileBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "session.json")

	backend, err := NewFileBackend(path)
	require.NoError(t, err)

	_, ok, err := backend.Load(ctx, TokenKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Save(ctx, TokenKey, "tok"))
	require.NoError(t, backend.Save(ctx, UserDataKey, "data"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	// a second backend on the same file sees the value, as after a restart
	restarted, err := NewFileBackend(path)
	require.NoError(t, err)
	s, err := Open(ctx, restarted, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, "tok", s.Token())

	require.NoError(t, s.Clear(ctx))
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "file is removed once empty")

	_, err = NewFileBackend(" ")
	assert.Error(t, err)
}

func TestFileBackend_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	backend, err := NewFileBackend(path)
	require.NoError(t, err)
	_, err = Open(context.Background(), backend, zerolog.Nop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse session file")
}

func TestRedisBackend(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	backend := NewRedisBackend(mr.Addr(), "", 0, "")
	t.Cleanup(func() { backend.Close() })

	s, err := Open(ctx, backend, zerolog.Nop())
	require.NoError(t, err)
	assert.False(t, s.Authenticated())

	require.NoError(t, s.Set(ctx, "tok"))
	got, err := mr.Get("reelmark:" + TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "tok", got)

	require.NoError(t, s.Clear(ctx))
	assert.False(t, mr.Exists("reelmark:"+TokenKey))
	require.NoError(t, backend.Delete(ctx, TokenKey), "deleting a missing key is fine")
}

func TestWatcher_ReloadsOnExternalChange(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	path := filepath.Join(t.TempDir(), "session.json")
	backend, err := NewFileBackend(path)
	require.NoError(t, err)
	s, err := Open(ctx, backend, zerolog.Nop())
	require.NoError(t, err)

	changes := make(chan string, 8)
	s.Subscribe(func(token string) { changes <- token })
	<-changes // replayed current value

	w, err := s.NewWatcher(path)
	require.NoError(t, err)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	other, err := NewFileBackend(path)
	require.NoError(t, err)
	require.NoError(t, other.Save(ctx, TokenKey, "from-elsewhere"))

	select {
	case token := <-changes:
		assert.Equal(t, "from-elsewhere", token)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not pick up the change")
	}
	assert.Equal(t, "from-elsewhere", s.Token())

	cancel()
	require.NoError(t, <-done)
}

func TestWatch_MissingDirectory(t *testing.T) {
	s, err := Open(context.Background(), NewMemoryBackend(), zerolog.Nop())
	require.NoError(t, err)

	err = s.Watch(context.Background(), filepath.Join(t.TempDir(), "missing", "session.json"))
	assert.Error(t, err)
}

func TestPeekClaims(t *testing.T) {
	now := time.Now()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:    "u1",
		Role:      "role-1",
		AppAccess: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "directus",
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(15 * time.Minute)),
		},
	}).SignedString([]byte("not-the-server-secret"))
	require.NoError(t, err)

	claims, err := PeekClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "role-1", claims.Role)
	assert.Equal(t, "directus", claims.Issuer)
	assert.False(t, claims.Expired(now))
	assert.InDelta(t, (15 * time.Minute).Seconds(), claims.ExpiresIn(now).Seconds(), 2)
	assert.True(t, claims.Expired(now.Add(time.Hour)))
	assert.Zero(t, claims.ExpiresIn(now.Add(time.Hour)))

	_, err = PeekClaims("opaque-token")
	assert.ErrorIs(t, err, ErrMalformedToken)

	assert.Zero(t, Claims{}.ExpiresIn(now))
	assert.False(t, Claims{}.Expired(now))
}
