package dedupe_test

import (
	"testing"
	"time"

	"github.com/DeafMist/news-brief/internal/dedupe"
	"github.com/stretchr/testify/require"
)

func TestCacheMarkAndContains(t *testing.T) {
	cache := dedupe.NewCache(10, time.Minute)
	require.False(t, cache.Contains("alpha"))
	cache.Mark("alpha")
	require.True(t, cache.Contains("alpha"))
	require.Equal(t, 1, cache.Len())
}

func TestCacheTTLExpiry(t *testing.T) {
	cache := dedupe.NewCache(10, 20*time.Millisecond)
	cache.Mark("beta")
	time.Sleep(25 * time.Millisecond)
	require.False(t, cache.Contains("beta"))
}

func TestCacheCapacityEvictsOldest(t *testing.T) {
	cache := dedupe.NewCache(1, time.Minute)
	cache.Mark("first")
	cache.Mark("second")

	require.False(t, cache.Contains("first"))
	require.True(t, cache.Contains("second"))
	require.Equal(t, 1, cache.Len())
}

func TestCacheRemarkKeepsNewestEntry(t *testing.T) {
	cache := dedupe.NewCache(2, time.Minute)
	cache.Mark("a")
	cache.Mark("b")
	cache.Mark("a")
	cache.Mark("c")

	require.True(t, cache.Contains("a"))
	require.True(t, cache.Contains("c"))
	require.False(t, cache.Contains("b"))
}
