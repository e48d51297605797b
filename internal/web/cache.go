package web

// Rendered pages are cached so back-to-back page loads between samples do not
// re-render identical state. golang-lru keeps the cache memory-bounded, which
// matters more here than hit rate.

import (
	lru "github.com/hashicorp/golang-lru"
)

// CacheKey identifies one renderable state: a page is current as long as
// neither the history store nor the alert log has a new revision.
type CacheKey struct {
	HistoryRev uint64
	LogRev     uint64
}

// PageCache holds rendered page bytes keyed by state revision.
type PageCache struct {
	cache *lru.Cache
}

// NewPageCache creates a cache holding at most size pages.
func NewPageCache(size int) (*PageCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, err
	}
	return &PageCache{cache: c}, nil
}

// Get returns a cached page for the key, if present.
func (p *PageCache) Get(key CacheKey) ([]byte, bool) {
	v, ok := p.cache.Get(key)
	if !ok {
		return nil, false
	}
	return v.([]byte), true
}

// Add stores a rendered page.
func (p *PageCache) Add(key CacheKey, page []byte) {
	p.cache.Add(key, page)
}

// Purge drops every cached page. Called after configuration changes, which
// alter page content without touching store revisions.
func (p *PageCache) Purge() {
	p.cache.Purge()
}
