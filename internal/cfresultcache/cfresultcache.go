// Package cfresultcache contains a cache for match-query results, so that
// repeated checks against the same (base, request, resourceType) triple
// skip the trie walk.
package cfresultcache

import (
	"fmt"
	"hash/maphash"

	"github.com/AdguardTeam/golibs/errors"
	"github.com/bluele/gcache"
	"github.com/veilmesh/cfengine/internal/cfrule"
)

// Cache is a wrapper around [gcache.Cache] to simplify rare error handling.
// A nil *Cache is valid and behaves as an always-empty, no-op cache, so a
// profile built with caching disabled can share the same call sites as one
// with it enabled.
type Cache[T any] struct {
	cache gcache.Cache
}

// New returns a new LRU result cache holding up to size entries.
func New[T any](size int) (c *Cache[T]) {
	return &Cache[T]{
		cache: gcache.New(size).LRU().Build(),
	}
}

// Clear purges every entry from the cache. If c is nil, Clear does
// nothing: a refresh that invalidates the active index also invalidates
// any cache keyed against it.
func (c *Cache[T]) Clear() {
	if c != nil {
		c.cache.Purge()
	}
}

// Key is the type of result-cache keys, a hash of the query triple.
type Key uint64

// Get returns the cached result, if any. If c is nil, Get returns a zero T
// and false.
func (c *Cache[T]) Get(k Key) (r T, ok bool) {
	if c == nil {
		return r, false
	}

	v, err := c.cache.Get(k)
	if err != nil {
		if !errors.Is(err, gcache.KeyNotFoundError) {
			panic(fmt.Errorf("cfresultcache: getting cache item: %w", err))
		}

		return r, false
	}

	return v.(T), true
}

// ItemCount returns the number of items currently held in the cache. If c
// is nil, ItemCount returns 0.
func (c *Cache[T]) ItemCount() (n int) {
	if c == nil {
		return 0
	}

	return c.cache.Len(false)
}

// Set stores r under k. If c is nil, Set does nothing.
func (c *Cache[T]) Set(k Key, r T) {
	if c == nil {
		return
	}

	err := c.cache.Set(k, r)
	if err != nil {
		panic(fmt.Errorf("cfresultcache: setting cache item: %w", err))
	}
}

// hashSeed is shared by every call to [QueryKey] so that equal inputs
// always hash to the same key within a process run.
var hashSeed = maphash.MakeSeed()

// QueryKey produces a cache key from the arguments of a check query.
func QueryKey(baseURL, requestURL string, resourceType cfrule.ResourceType) (k Key) {
	h := &maphash.Hash{}
	h.SetSeed(hashSeed)

	_, _ = h.WriteString(baseURL)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(requestURL)

	var buf [1]byte
	buf[0] = byte(resourceType)
	_, _ = h.Write(buf[:])

	return Key(h.Sum64())
}
