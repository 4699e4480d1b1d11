package workorders

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheBumpChangesKeys(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	before, err := cache.BuildKey(ctx, "workorders", "mobile", "all", "")
	require.NoError(t, err)

	require.NoError(t, cache.Bump(ctx))

	after, err := cache.BuildKey(ctx, "workorders", "mobile", "all", "")
	require.NoError(t, err)
	require.NotEqual(t, before, after)
}

func TestCacheFetchJSONPopulatesOnce(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "workorders", "mobile", "all", "")
	require.NoError(t, err)

	calls := 0
	loader := func(ctx context.Context) (any, error) {
		calls++
		return []MobileWorkOrder{{ID: 1, OrderNo: "SIP-100", Status: StatusPending, StatusLabel: "Bekliyor"}}, nil
	}

	var first []MobileWorkOrder
	require.NoError(t, cache.FetchJSON(ctx, key, &first, loader))
	var second []MobileWorkOrder
	require.NoError(t, cache.FetchJSON(ctx, key, &second, loader))

	require.Equal(t, 1, calls)
	require.Equal(t, first, second)
	require.Equal(t, "SIP-100", second[0].OrderNo)
}

func TestCacheNilClientPassesThrough(t *testing.T) {
	cache := NewCache(nil, time.Minute)
	ctx := context.Background()

	key, err := cache.BuildKey(ctx, "workorders", "mobile", "all", "")
	require.NoError(t, err)

	calls := 0
	loader := func(ctx context.Context) (any, error) {
		calls++
		return []MobileWorkOrder{}, nil
	}

	var out []MobileWorkOrder
	require.NoError(t, cache.FetchJSON(ctx, key, &out, loader))
	require.NoError(t, cache.FetchJSON(ctx, key, &out, loader))
	require.Equal(t, 2, calls)
	require.NoError(t, cache.Bump(ctx))
}
