package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type snapshot struct {
	Revenue float64
}

func TestMemoryStore_PutGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	value := &snapshot{Revenue: 42.5}
	require.NoError(t, store.Put(ctx, "kpis:abc", value, time.Minute))

	got, ok, err := store.Get(ctx, "kpis:abc")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Same(t, value, got)

	_, ok, err = store.Get(ctx, "kpis:missing")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemoryStore(WithClock(clock.Now))

	require.NoError(t, store.Put(ctx, "k", "v1", 15*time.Minute))

	clock.Advance(15*time.Minute - time.Second)
	_, ok, _ := store.Get(ctx, "k")
	assert.True(t, ok, "entry should still be fresh just before expiry")

	clock.Advance(time.Second)
	_, ok, _ = store.Get(ctx, "k")
	assert.False(t, ok, "lookup at expiry is a miss")

	size, err := store.Size(ctx)
	require.NoError(t, err)
	assert.Zero(t, size, "expired entry is removed on lookup")

	require.NoError(t, store.Put(ctx, "k", "v2", time.Minute))
	got, ok, _ := store.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, "v2", got)
}

func TestMemoryStore_Overwrite(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemoryStore(WithClock(clock.Now))

	require.NoError(t, store.Put(ctx, "k", 1, time.Minute))
	clock.Advance(50 * time.Second)
	require.NoError(t, store.Put(ctx, "k", 2, time.Minute))
	clock.Advance(30 * time.Second)

	got, ok, _ := store.Get(ctx, "k")
	require.True(t, ok)
	assert.Equal(t, 2, got)
}

func TestMemoryStore_InvalidTTL(t *testing.T) {
	store := NewMemoryStore()
	err := store.Put(context.Background(), "k", "v", 0)
	assert.ErrorIs(t, err, ErrInvalidTTL)

	err = store.Put(context.Background(), "k", "v", -time.Second)
	assert.ErrorIs(t, err, ErrInvalidTTL)
}

func TestMemoryStore_Sweep(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemoryStore(WithClock(clock.Now))

	require.NoError(t, store.Put(ctx, "short-1", 1, time.Minute))
	require.NoError(t, store.Put(ctx, "short-2", 2, time.Minute))
	require.NoError(t, store.Put(ctx, "long", 3, time.Hour))

	removed, err := store.Sweep(ctx, clock.Now().Add(2*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	size, _ := store.Size(ctx)
	assert.Equal(t, int64(1), size)

	_, ok, _ := store.Get(ctx, "long")
	assert.True(t, ok)
}

func TestMemoryStore_Delete(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	require.NoError(t, store.Put(ctx, "k", "v", time.Minute))
	require.NoError(t, store.Delete(ctx, "k"))
	require.NoError(t, store.Delete(ctx, "never-existed"))

	_, ok, _ := store.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryStore_Close(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "k", "v", time.Minute))
	require.NoError(t, store.Close())

	size, _ := store.Size(ctx)
	assert.Zero(t, size)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("k%d", i%5)
			_ = store.Put(ctx, key, i, time.Minute)
			_, _, _ = store.Get(ctx, key)
			_, _ = store.Sweep(ctx, time.Now())
		}(i)
	}
	wg.Wait()

	size, _ := store.Size(ctx)
	assert.Equal(t, int64(5), size)
}

func TestLookup(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	t.Run("typed hit", func(t *testing.T) {
		value := &snapshot{Revenue: 10}
		require.NoError(t, store.Put(ctx, "typed", value, time.Minute))

		got, ok, err := Lookup[*snapshot](ctx, store, "typed")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Same(t, value, got)
	})

	t.Run("miss", func(t *testing.T) {
		got, ok, err := Lookup[*snapshot](ctx, store, "absent")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, got)
	})

	t.Run("raw json is decoded", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "raw", rawJSON(`{"Revenue":12.5}`), time.Minute))

		got, ok, err := Lookup[*snapshot](ctx, store, "raw")
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 12.5, got.Revenue)
	})

	t.Run("type mismatch", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "wrong", 17, time.Minute))

		_, ok, err := Lookup[*snapshot](ctx, store, "wrong")
		assert.Error(t, err)
		assert.False(t, ok)
	})
}
