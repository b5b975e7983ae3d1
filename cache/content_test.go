package cache

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/quire/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(t *testing.T, ttl time.Duration) (*ContentCache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c, err := New(ttl, 16, WithClock(clock.Now))
	require.NoError(t, err)
	return c, clock
}

func TestContentCache_SetThenGet(t *testing.T) {
	c, _ := newTestCache(t, DefaultTTL)

	c.Set("def f(): pass", "# docs")
	got, ok := c.Get("def f(): pass")
	require.True(t, ok)
	assert.Equal(t, "# docs", got)

	_, ok = c.Get("something else")
	assert.False(t, ok)
}

func TestContentCache_Overwrite(t *testing.T) {
	c, _ := newTestCache(t, DefaultTTL)

	c.Set("x", "first")
	c.Set("x", "second")
	got, ok := c.Get("x")
	require.True(t, ok)
	assert.Equal(t, "second", got)
	assert.Equal(t, 1, c.Len())
}

func TestContentCache_LazyExpiry(t *testing.T) {
	c, clock := newTestCache(t, time.Hour)

	c.Set("x", "artifact")
	clock.Advance(59 * time.Minute)
	_, ok := c.Get("x")
	assert.True(t, ok, "fresh entry should be served")

	clock.Advance(2 * time.Minute)
	_, ok = c.Get("x")
	assert.False(t, ok, "expired entry should be absent")
	assert.Equal(t, 0, c.Len(), "expired entry should be evicted on access")

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.Equal(t, uint64(1), stats.Expired)
}

func TestContentCache_ExpiryKeepsConcurrentSet(t *testing.T) {
	clock := &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	var c *ContentCache
	armed := false
	now := func() time.Time {
		if armed {
			// Another writer refreshes the entry after Get saw it expired.
			armed = false
			c.Set("x", "fresh")
		}
		return clock.Now()
	}
	c, err := New(time.Hour, 16, WithClock(now))
	require.NoError(t, err)

	c.Set("x", "stale")
	clock.Advance(2 * time.Hour)
	armed = true

	got, ok := c.Get("x")
	assert.True(t, ok)
	assert.Equal(t, "fresh", got)
	assert.Equal(t, 1, c.Len())

	got, ok = c.Get("x")
	assert.True(t, ok)
	assert.Equal(t, "fresh", got)
	assert.Zero(t, c.Stats().Expired)
}

func TestContentCache_ClearExpired(t *testing.T) {
	c, clock := newTestCache(t, time.Hour)

	c.Set("old-1", "a")
	c.Set("old-2", "b")
	clock.Advance(90 * time.Minute)
	c.Set("new", "c")

	assert.Equal(t, 2, c.ClearExpired())
	assert.Equal(t, 1, c.Len())
	got, ok := c.Get("new")
	require.True(t, ok)
	assert.Equal(t, "c", got)
}

func TestContentCache_KeyIsContentHash(t *testing.T) {
	c, _ := newTestCache(t, DefaultTTL)
	c.Set("content", "v")

	entry, ok := c.entries.Peek(core.HashContent("content"))
	require.True(t, ok)
	assert.Equal(t, "v", entry.Value)
}

func TestContentCache_Concurrent(t *testing.T) {
	c, _ := newTestCache(t, DefaultTTL)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				key := fmt.Sprintf("k%d", j%10)
				c.Set(key, key)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 16)
}

func TestNew_InvalidTTL(t *testing.T) {
	_, err := New(0, 10)
	assert.ErrorIs(t, err, core.ErrValidation)
}
