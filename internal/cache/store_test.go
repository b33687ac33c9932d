package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fi-advisor/fi/internal/database/testutil"
)

func storesUnderTest(t *testing.T, clock *fakeClock) map[string]Store {
	t.Helper()
	db := testutil.NewDB(t)
	return map[string]Store{
		"memory":   NewMemoryStore(WithClock(clock.Now)),
		"database": NewDatabaseStore(db, WithClock(clock.Now)),
	}
}

func TestStoreSetGetDelete(t *testing.T) {
	clock := newFakeClock()
	for name, store := range storesUnderTest(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			require.NoError(t, store.Set(ctx, "quote_TCS.NS", []byte("4012.5"), time.Minute))
			value, ok, err := store.Get(ctx, "quote_TCS.NS")
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "4012.5", string(value))

			require.NoError(t, store.Delete(ctx, "quote_TCS.NS"))
			_, ok, err = store.Get(ctx, "quote_TCS.NS")
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestStoreExpiry(t *testing.T) {
	clock := newFakeClock()
	for name, store := range storesUnderTest(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := "expiring_" + name

			require.NoError(t, store.Set(ctx, key, []byte("x"), 10*time.Second))
			clock.Advance(11 * time.Second)

			_, ok, err := store.Get(ctx, key)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestStoreGetWithTTLReportsRemainingLifetime(t *testing.T) {
	clock := newFakeClock()
	for name, store := range storesUnderTest(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := "news_stocks_5_" + name

			require.NoError(t, store.Set(ctx, key, []byte("[]"), 30*time.Minute))
			clock.Advance(25 * time.Minute)

			value, ttl, ok, err := store.GetWithTTL(ctx, key)
			require.NoError(t, err)
			require.True(t, ok)
			require.Equal(t, "[]", string(value))
			require.InDelta(t, float64(5*time.Minute), float64(ttl), float64(time.Second))

			clock.Advance(6 * time.Minute)
			_, _, ok, err = store.GetWithTTL(ctx, key)
			require.NoError(t, err)
			require.False(t, ok)
		})
	}
}

func TestDatabaseStoreGetWithTTLWithoutExpiry(t *testing.T) {
	store := NewDatabaseStore(testutil.NewDB(t), WithClock(newFakeClock().Now))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "forever", []byte("1"), 0))
	_, ttl, ok, err := store.GetWithTTL(ctx, "forever")
	require.NoError(t, err)
	require.True(t, ok)
	require.Zero(t, ttl)
}

func TestStoreIncrementWithTTL(t *testing.T) {
	clock := newFakeClock()
	for name, store := range storesUnderTest(t, clock) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			key := "rate_" + name

			count, ttl, err := store.IncrementWithTTL(ctx, key, time.Minute)
			require.NoError(t, err)
			require.EqualValues(t, 1, count)
			require.Equal(t, time.Minute, ttl)

			clock.Advance(20 * time.Second)
			count, ttl, err = store.IncrementWithTTL(ctx, key, time.Minute)
			require.NoError(t, err)
			require.EqualValues(t, 2, count)
			require.Equal(t, 40*time.Second, ttl)

			clock.Advance(41 * time.Second)
			count, _, err = store.IncrementWithTTL(ctx, key, time.Minute)
			require.NoError(t, err)
			require.EqualValues(t, 1, count, "window restarts once expired")
		})
	}
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	type article struct {
		Title string `json:"title"`
	}

	require.NoError(t, SetJSON(ctx, store, "news_stocks_1", []article{{Title: "Sensex rallies"}}, NewsTTL))

	got, ok, err := GetJSON[[]article](ctx, store, "news_stocks_1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "Sensex rallies", got[0].Title)

	_, ok, err = GetJSON[[]article](ctx, nil, "news_stocks_1")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestDatabaseStorePurgeExpired(t *testing.T) {
	clock := newFakeClock()
	db := testutil.NewDB(t)
	store := NewDatabaseStore(db, WithClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "short", []byte("1"), time.Second))
	require.NoError(t, store.Set(ctx, "long", []byte("2"), time.Hour))
	require.NoError(t, store.Set(ctx, "forever", []byte("3"), 0))
	clock.Advance(time.Minute)

	removed, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 1, removed)

	_, ok, err := store.Get(ctx, "forever")
	require.NoError(t, err)
	require.True(t, ok)
}
