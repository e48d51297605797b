package web

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageCacheHitAndMiss(t *testing.T) {
	c, err := NewPageCache(4)
	require.NoError(t, err)

	key := CacheKey{HistoryRev: 3, LogRev: 1}
	_, ok := c.Get(key)
	assert.False(t, ok)

	c.Add(key, []byte("page-v3"))
	page, ok := c.Get(key)
	require.True(t, ok)
	assert.Equal(t, []byte("page-v3"), page)

	// A new revision is a different key.
	_, ok = c.Get(CacheKey{HistoryRev: 4, LogRev: 1})
	assert.False(t, ok)
}

func TestPageCacheEviction(t *testing.T) {
	c, err := NewPageCache(2)
	require.NoError(t, err)

	c.Add(CacheKey{HistoryRev: 1}, []byte("a"))
	c.Add(CacheKey{HistoryRev: 2}, []byte("b"))
	c.Add(CacheKey{HistoryRev: 3}, []byte("c"))

	_, ok := c.Get(CacheKey{HistoryRev: 1})
	assert.False(t, ok, "oldest page evicted")
	_, ok = c.Get(CacheKey{HistoryRev: 3})
	assert.True(t, ok)
}

func TestPageCachePurge(t *testing.T) {
	c, err := NewPageCache(4)
	require.NoError(t, err)

	c.Add(CacheKey{HistoryRev: 1}, []byte("a"))
	c.Purge()

	_, ok := c.Get(CacheKey{HistoryRev: 1})
	assert.False(t, ok)
}
