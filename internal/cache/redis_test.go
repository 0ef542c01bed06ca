package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type entry struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

func newTestCache(t *testing.T) (*miniredis.Miniredis, *Cache) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, New(rdb)
}

func TestAccountKey(t *testing.T) {
	assert.Equal(t, "account:12", AccountKey(12))
}

func TestAside_MissThenHit(t *testing.T) {
	mr, c := newTestCache(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *entry) func() error {
		return func() error {
			calls++
			*dest = entry{ID: 3, Name: "Ada"}
			return nil
		}
	}

	var first entry
	require.NoError(t, c.Aside(ctx, AccountKey(3), &first, AccountTTL, fetch(&first)))
	assert.Equal(t, "Ada", first.Name)
	assert.True(t, mr.Exists(AccountKey(3)))

	var second entry
	require.NoError(t, c.Aside(ctx, AccountKey(3), &second, AccountTTL, fetch(&second)))
	assert.Equal(t, "Ada", second.Name)
	assert.Equal(t, 1, calls)

	c.InvalidateAccount(ctx, 3)
	assert.False(t, mr.Exists(AccountKey(3)))
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr, c := newTestCache(t)
	boom := errors.New("boom")

	var dest entry
	err := c.Aside(context.Background(), "k", &dest, time.Minute, func() error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, mr.Exists("k"))
}

func TestNilCacheIsNoop(t *testing.T) {
	var c *Cache
	ctx := context.Background()

	found, err := c.GetJSON(ctx, "k", &entry{})
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, c.SetJSON(ctx, "k", entry{}, time.Minute))
	c.Invalidate(ctx, "k")

	var dest entry
	require.NoError(t, New(nil).Aside(ctx, "k", &dest, time.Minute, func() error {
		dest.Name = "direct"
		return nil
	}))
	assert.Equal(t, "direct", dest.Name)
}

func TestConnect(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := Connect(context.Background(), mr.Addr())
	require.NotNil(t, client)
	_ = client.Close()

	assert.Nil(t, Connect(context.Background(), "redis://%zz"))
}
