package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSetRoundTrip(t *testing.T) {
	c := New[string, int]()
	c.Set("a", 1, 0)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestGetMissingKey(t *testing.T) {
	c := New[string, int]()
	_, ok := c.Get("missing")
	assert.False(t, ok)
}

func TestEntryExpiresAfterTTL(t *testing.T) {
	c := New[string, int]()
	c.Set("a", 1, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.False(t, c.Has("a"))
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := New[string, int]()
	c.Set("a", 1, 0)
	time.Sleep(5 * time.Millisecond)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestDeleteReportsWhetherEntryExisted(t *testing.T) {
	c := New[string, int]()
	c.Set("a", 1, 0)

	assert.True(t, c.Delete("a"))
	assert.False(t, c.Delete("a"))
}

func TestDeleteOfExpiredEntryReportsFalse(t *testing.T) {
	c := New[string, int]()
	c.Set("a", 1, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	assert.False(t, c.Delete("a"))
}

func TestClearResetsEverything(t *testing.T) {
	c := New[string, int]()
	c.Set("a", 1, 0)
	c.Get("a")
	c.Get("missing")

	c.Clear()

	_, ok := c.Get("a")
	assert.False(t, ok)
	hits, misses, size := c.Stats()
	assert.Zero(t, hits)
	assert.Equal(t, int64(1), misses) // the Get("a") right after Clear
	assert.Zero(t, size)
}

func TestRangeSkipsExpiredEntries(t *testing.T) {
	c := New[string, int]()
	c.Set("live", 1, 0)
	c.Set("dead", 2, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	seen := map[string]int{}
	c.Range(func(k string, v int) bool {
		seen[k] = v
		return true
	})

	assert.Equal(t, map[string]int{"live": 1}, seen)
}

func TestRangeStopsEarly(t *testing.T) {
	c := New[string, int]()
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("c", 3, 0)

	count := 0
	c.Range(func(k string, v int) bool {
		count++
		return false
	})

	assert.Equal(t, 1, count)
}

func TestStatsTracksHitsAndMisses(t *testing.T) {
	c := New[string, int]()
	c.Set("a", 1, 0)

	c.Get("a")
	c.Get("a")
	c.Get("missing")

	hits, misses, size := c.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, 1, size)
}
