package main

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestCache() (*ResultCache, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	rc := NewResultCache(DefaultCacheOptions())
	rc.now = clock.now
	return rc, clock
}

func TestCacheKeyIgnoresWordOrderAndCase(t *testing.T) {
	opts := SearchOptions{PerPage: 15, Orientation: "landscape"}
	a := CacheKey("Business Meeting", opts)
	b := CacheKey("meeting  business", opts)
	assert.Equal(t, a, b)
	assert.Equal(t, `search-business meeting-{"orientation":"landscape","page":1,"per_page":15}`, a)
}

func TestCacheKeyDefaultsAndOrientation(t *testing.T) {
	assert.Equal(t, `search-office-{"orientation":null,"page":1,"per_page":15}`, CacheKey("office", SearchOptions{}))
	assert.NotEqual(t, CacheKey("office", SearchOptions{Orientation: "square"}), CacheKey("office", SearchOptions{Orientation: "landscape"}))
	assert.NotEqual(t, CacheKey("office", SearchOptions{Page: 2}), CacheKey("office", SearchOptions{}))
	assert.Equal(t, "curated-1-30", CuratedKey(1, 30))
}

func TestCacheExpiry(t *testing.T) {
	rc, clock := newTestCache()
	photos := []PhotoCandidate{{ID: "1"}}
	rc.Put("k", photos, false)

	clock.advance(14*time.Minute + 59*time.Second)
	got, status := rc.Get("k")
	assert.Equal(t, CacheHit, status)
	assert.Equal(t, photos, got)

	clock.advance(2 * time.Second)
	got, status = rc.Get("k")
	assert.Equal(t, CacheMiss, status)
	assert.Nil(t, got)
}

func TestCacheFailureTable(t *testing.T) {
	rc, clock := newTestCache()
	rc.Put("empty", nil, true)

	_, status := rc.Get("empty")
	assert.Equal(t, CacheFailureHit, status)
	assert.Equal(t, CacheStats{SuccessCacheSize: 0, FailureCacheSize: 1, TotalCached: 1}, rc.Stats())

	clock.advance(15 * time.Minute)
	_, status = rc.Get("empty")
	assert.Equal(t, CacheMiss, status)
}

func TestCacheSuccessWinsOverFailure(t *testing.T) {
	rc, _ := newTestCache()
	rc.Put("k", nil, true)
	rc.Put("k", []PhotoCandidate{{ID: "9"}}, false)
	_, status := rc.Get("k")
	assert.Equal(t, CacheHit, status)
}

func TestCacheEviction(t *testing.T) {
	rc, clock := newTestCache()
	for i := 0; i < 101; i++ {
		rc.Put(fmt.Sprintf("k%03d", i), []PhotoCandidate{{ID: fmt.Sprint(i)}}, false)
		clock.advance(time.Millisecond)
	}
	require.Equal(t, 81, rc.Stats().SuccessCacheSize)

	for i := 0; i < 20; i++ {
		_, status := rc.Get(fmt.Sprintf("k%03d", i))
		assert.Equal(t, CacheMiss, status, "k%03d should be evicted", i)
	}
	_, status := rc.Get("k020")
	assert.Equal(t, CacheHit, status)
	_, status = rc.Get("k100")
	assert.Equal(t, CacheHit, status)
}

func TestCacheClear(t *testing.T) {
	rc, _ := newTestCache()
	rc.Put("a", []PhotoCandidate{{ID: "1"}}, false)
	rc.Put("b", nil, true)
	rc.Clear()
	assert.Equal(t, CacheStats{}, rc.Stats())
}

func TestCacheStatusString(t *testing.T) {
	assert.Equal(t, "hit", CacheHit.String())
	assert.Equal(t, "failure-hit", CacheFailureHit.String())
	assert.Equal(t, "miss", CacheMiss.String())
}
