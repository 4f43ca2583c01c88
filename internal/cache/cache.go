/*
 * Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

// Package cache provides the object-cache contract used by cached resource
// lookups and the throttle's access log.
package cache

import (
	"sync"
	"time"
)

// Cache stores values under string keys with a per-entry lifetime.
type Cache interface {
	// Get returns the cached value and whether it was present and unexpired.
	Get(key string) (interface{}, bool)
	// Set stores the value. A zero ttl means the entry never expires.
	Set(key string, value interface{}, ttl time.Duration)
	// Delete removes the entry, if present.
	Delete(key string)
}

// NoCache is a cache that stores nothing. It is the default for resources
// that do not opt in to caching.
type NoCache struct{}

func (NoCache) Get(string) (interface{}, bool)         { return nil, false }
func (NoCache) Set(string, interface{}, time.Duration) {}
func (NoCache) Delete(string)                          {}

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// MemoryCache is a mutex-guarded in-process cache with TTL expiry. Expired
// entries are reaped lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]entry), now: time.Now}
}

func (c *MemoryCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && c.now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return nil, false
	}
	return e.value, true
}

func (c *MemoryCache) Set(key string, value interface{}, ttl time.Duration) {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = c.now().Add(ttl)
	}
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
}

func (c *MemoryCache) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
