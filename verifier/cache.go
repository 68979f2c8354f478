/*
 * Jacobin VM - A Java virtual machine
 * Copyright (c) 2021-6 by the Jacobin authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package verifier

import "sync"

// MethodKey identifies a method for the purposes of the verification
// result cache (spec.md §4.3 "a per-method result cache keyed by
// (class-name, method-name, descriptor)"). Grounded on
// ristretto_classfile's cache.rs MethodKey.
type MethodKey struct {
	ClassName  string
	MethodName string
	Descriptor string
}

// CachedResult is a stored verification outcome: either success, or
// failure carrying the error message (not the original error value,
// since cached failures may outlive the class that produced them).
type CachedResult struct {
	Success bool
	Message string // valid when !Success
}

// CacheStats mirrors cache.rs's CacheStats for diagnostics/metrics.
type CacheStats struct {
	ResultHits     uint64
	ResultMisses   uint64
}

// Cache is the per-method verification result cache. Descriptor
// parsing is already memoised by classfile.ParseMethodDescriptor's
// own sync.Map, so Cache only needs to hold method results -- adding
// a second descriptor cache here would just duplicate that one.
type Cache struct {
	enabled bool

	mu      sync.RWMutex
	results map[MethodKey]CachedResult
	stats   CacheStats
}

// NewCache creates a verification cache. A disabled cache is a no-op:
// Get always misses and Put is a no-op, which lets callers always go
// through the cache without a branch at every call site.
func NewCache(enabled bool) *Cache {
	return &Cache{enabled: enabled, results: make(map[MethodKey]CachedResult)}
}

func (c *Cache) Get(key MethodKey) (CachedResult, bool) {
	if !c.enabled {
		return CachedResult{}, false
	}
	c.mu.RLock()
	r, ok := c.results[key]
	c.mu.RUnlock()

	c.mu.Lock()
	if ok {
		c.stats.ResultHits++
	} else {
		c.stats.ResultMisses++
	}
	c.mu.Unlock()
	return r, ok
}

func (c *Cache) Put(key MethodKey, result CachedResult) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	c.results[key] = result
	c.mu.Unlock()
}

func (c *Cache) Stats() CacheStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stats
}
