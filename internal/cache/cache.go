// Package cache provides the process-wide TTL cache injected into services
// that need short-lived lookups.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cache is a keyed store with per-entry expiry. Implementations must be safe
// for concurrent use.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Set(key K, value V)
	Delete(key K)
	Len() int
}

// TTL is an in-memory Cache bounded by entry count. Expired entries are
// dropped on access and by a background sweep; when full the least recently
// used entry is evicted.
type TTL[K comparable, V any] struct {
	lru *expirable.LRU[K, V]
}

// NewTTL creates a TTL cache. maxEntries <= 0 means unbounded; ttl <= 0 means
// entries never expire.
func NewTTL[K comparable, V any](maxEntries int, ttl time.Duration) *TTL[K, V] {
	if maxEntries < 0 {
		maxEntries = 0
	}
	if ttl < 0 {
		ttl = 0
	}
	return &TTL[K, V]{lru: expirable.NewLRU[K, V](maxEntries, nil, ttl)}
}

func (c *TTL[K, V]) Get(key K) (V, bool) { return c.lru.Get(key) }
func (c *TTL[K, V]) Set(key K, value V)  { c.lru.Add(key, value) }
func (c *TTL[K, V]) Delete(key K)        { c.lru.Remove(key) }
func (c *TTL[K, V]) Len() int            { return c.lru.Len() }

// Purge drops every entry.
func (c *TTL[K, V]) Purge() { c.lru.Purge() }
