// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package cache

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/poiesic/quire/core"
)

const (
	DefaultTTL      = 24 * time.Hour
	DefaultCapacity = 4096
)

// Entry is one cached artifact.
type Entry struct {
	Key       string
	Value     string
	CreatedAt time.Time
}

// Stats is a point-in-time view of cache activity.
type Stats struct {
	Entries int
	Hits    uint64
	Misses  uint64
	Expired uint64
}

// ContentCache maps content hashes to generated artifacts. Entries older
// than the TTL are treated as absent and evicted when read. The cache is
// in-memory only and safe for concurrent use.
type ContentCache struct {
	entries *lru.Cache[string, Entry]
	ttl     time.Duration
	now     func() time.Time
	logger  *slog.Logger

	// mu orders writes against expiry removal.
	mu sync.Mutex

	hits    atomic.Uint64
	misses  atomic.Uint64
	expired atomic.Uint64
}

// Option configures a ContentCache.
type Option func(*ContentCache)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(c *ContentCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *ContentCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a ContentCache holding at most capacity entries.
func New(ttl time.Duration, capacity int, opts ...Option) (*ContentCache, error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("%w: ttl must be positive", core.ErrValidation)
	}
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	entries, err := lru.New[string, Entry](capacity)
	if err != nil {
		return nil, err
	}
	c := &ContentCache{
		entries: entries,
		ttl:     ttl,
		now:     time.Now,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "content-cache")
	return c, nil
}

// Get returns the artifact cached for content, if present and fresh.
func (c *ContentCache) Get(content string) (string, bool) {
	key := core.HashContent(content)
	entry, ok := c.entries.Get(key)
	if !ok {
		c.misses.Add(1)
		return "", false
	}
	if c.isExpired(entry) {
		fresh, ok := c.removeIfExpired(key)
		if ok {
			c.hits.Add(1)
			return fresh.Value, true
		}
		c.misses.Add(1)
		return "", false
	}
	c.hits.Add(1)
	return entry.Value, true
}

// removeIfExpired drops key unless a concurrent Set replaced it with a
// fresh entry, which is returned instead.
func (c *ContentCache) removeIfExpired(key string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	current, ok := c.entries.Peek(key)
	if !ok {
		return Entry{}, false
	}
	if !c.isExpired(current) {
		return current, true
	}
	c.entries.Remove(key)
	c.expired.Add(1)
	c.logger.Debug("evicted expired entry", "key", key)
	return Entry{}, false
}

// Set stores artifact for content, replacing any previous entry.
func (c *ContentCache) Set(content, artifact string) {
	key := core.HashContent(content)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries.Add(key, Entry{
		Key:       key,
		Value:     artifact,
		CreatedAt: c.now(),
	})
}

// ClearExpired removes every expired entry and returns how many were dropped.
func (c *ContentCache) ClearExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for _, key := range c.entries.Keys() {
		entry, ok := c.entries.Peek(key)
		if ok && c.isExpired(entry) {
			if c.entries.Remove(key) {
				removed++
			}
		}
	}
	if removed > 0 {
		c.expired.Add(uint64(removed))
		c.logger.Debug("cleared expired entries", "count", removed)
	}
	return removed
}

// Clear drops all entries.
func (c *ContentCache) Clear() {
	c.entries.Purge()
}

// Len returns the number of stored entries, expired or not.
func (c *ContentCache) Len() int {
	return c.entries.Len()
}

// Stats returns hit, miss and expiry counters.
func (c *ContentCache) Stats() Stats {
	return Stats{
		Entries: c.entries.Len(),
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Expired: c.expired.Load(),
	}
}

func (c *ContentCache) isExpired(entry Entry) bool {
	return c.now().Sub(entry.CreatedAt) > c.ttl
}
