package auth

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/picshed/picshed/storage"
)

type stubUserLoader struct {
	users map[int64]*storage.User
	calls int
}

func (l *stubUserLoader) GetUser(_ context.Context, id int64) (*storage.User, error) {
	l.calls++
	return l.users[id], nil
}

func newTestService(t *testing.T, loader *stubUserLoader) (*Service, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return NewService("test-secret", client, loader), mr
}

func TestResolveIdentity(t *testing.T) {
	loader := &stubUserLoader{users: map[int64]*storage.User{
		1: {ID: 1, Name: "Alice", Avatar: "a.png"},
	}}
	svc, _ := newTestService(t, loader)
	ctx := context.Background()

	t.Run("valid token", func(t *testing.T) {
		token, err := svc.IssueToken(1, time.Minute)
		require.NoError(t, err)

		user, err := svc.ResolveIdentity(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, int64(1), user.ID)
		assert.Equal(t, "Alice", user.Name)
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := svc.ResolveIdentity(ctx, "")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ResolveIdentity(ctx, "not-a-jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		token, err := svc.IssueToken(1, -time.Minute)
		require.NoError(t, err)

		_, err = svc.ResolveIdentity(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		other := NewService("other-secret", nil, loader)
		token, err := other.IssueToken(1, time.Minute)
		require.NoError(t, err)

		_, err = svc.ResolveIdentity(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unknown user", func(t *testing.T) {
		token, err := svc.IssueToken(42, time.Minute)
		require.NoError(t, err)

		_, err = svc.ResolveIdentity(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("non-numeric subject", func(t *testing.T) {
		claims := jwt.RegisteredClaims{
			Subject:   "alice",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = svc.ResolveIdentity(ctx, token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestUserCache(t *testing.T) {
	loader := &stubUserLoader{users: map[int64]*storage.User{
		1: {ID: 1, Name: "Alice"},
	}}
	svc, mr := newTestService(t, loader)
	ctx := context.Background()

	token, err := svc.IssueToken(1, time.Minute)
	require.NoError(t, err)

	t.Run("miss populates cache", func(t *testing.T) {
		_, err := svc.ResolveIdentity(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, 1, loader.calls)
		assert.True(t, mr.Exists("cache:user:1"))
	})

	t.Run("hit skips storage", func(t *testing.T) {
		_, err := svc.ResolveIdentity(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, 1, loader.calls, "second lookup should be served from cache")
	})

	t.Run("corrupt entry falls back to storage", func(t *testing.T) {
		mr.Set("cache:user:1", "{not json")
		user, err := svc.ResolveIdentity(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, "Alice", user.Name)
		assert.Equal(t, 2, loader.calls)
	})

	t.Run("cached value round-trips", func(t *testing.T) {
		raw, err := mr.Get("cache:user:1")
		require.NoError(t, err)
		var user storage.User
		require.NoError(t, json.Unmarshal([]byte(raw), &user))
		assert.Equal(t, "Alice", user.Name)
	})
}

func TestResolveIdentityWithoutRedis(t *testing.T) {
	loader := &stubUserLoader{users: map[int64]*storage.User{
		1: {ID: 1, Name: "Alice"},
	}}
	svc := NewService("test-secret", nil, loader)

	token, err := svc.IssueToken(1, time.Minute)
	require.NoError(t, err)

	user, err := svc.ResolveIdentity(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
}
