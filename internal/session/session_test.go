package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client), mr
}

func stores(t *testing.T) map[string]Store {
	rs, _ := newRedisStore(t)
	return map[string]Store{
		"redis":  rs,
		"memory": NewMemoryStore(),
	}
}

func TestStore_SessionLifecycle(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			p := Principal{Kind: KindMerchant, ID: 7, Name: "noodle-bar"}
			require.NoError(t, s.Save(ctx, "abc", p, time.Hour))

			got, err := s.Get(ctx, "abc")
			require.NoError(t, err)
			assert.Equal(t, p, got)

			require.NoError(t, s.Delete(ctx, "abc"))
			_, err = s.Get(ctx, "abc")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestStore_Claim(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ok, _, err := s.Claim(ctx, "checkout:1:k", time.Hour)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, val, err := s.Claim(ctx, "checkout:1:k", time.Hour)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, Pending, val)

			require.NoError(t, s.Complete(ctx, "checkout:1:k", "ORD-1", time.Hour))
			ok, val, err = s.Claim(ctx, "checkout:1:k", time.Hour)
			require.NoError(t, err)
			assert.False(t, ok)
			assert.Equal(t, "ORD-1", val)

			require.NoError(t, s.Release(ctx, "checkout:1:k"))
			ok, _, err = s.Claim(ctx, "checkout:1:k", time.Hour)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestRedisStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s, mr := newRedisStore(t)

	require.NoError(t, s.Save(ctx, "abc", Principal{Kind: KindUser, ID: 1}, time.Minute))
	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Now()
	s.now = func() time.Time { return now }

	require.NoError(t, s.Save(ctx, "abc", Principal{Kind: KindUser, ID: 1}, time.Minute))
	ok, _, err := s.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	now = now.Add(2 * time.Minute)
	_, err = s.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)

	ok, _, err = s.Claim(ctx, "k", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}
