// Copyright (C) 2025-2026 CardinalHQ, Inc
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, version 3.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <http://www.gnu.org/licenses/>.

package writermanager

import (
	"context"
	"slices"
	"time"

	"github.com/cardinalhq/lakesink/internal/table"
)

type cacheEntry struct {
	w          Writer
	lastAccess time.Time
}

// evictFunc finalizes a writer that has been removed from the cache.
type evictFunc func(ctx context.Context, key table.PartitionKey, w Writer, reason EvictReason) error

// writerCache maps partition keys to open writers. Entries idle for at
// least idle are evicted by a sweep at the start of every operation except
// has and len, which never mutate.
type writerCache struct {
	entries map[table.PartitionKey]*cacheEntry
	idle    time.Duration
	now     func() time.Time
	evict   evictFunc
}

func newWriterCache(idle time.Duration, now func() time.Time, evict evictFunc) *writerCache {
	return &writerCache{
		entries: make(map[table.PartitionKey]*cacheEntry),
		idle:    idle,
		now:     now,
		evict:   evict,
	}
}

func (c *writerCache) expired(e *cacheEntry, now time.Time) bool {
	return now.Sub(e.lastAccess) >= c.idle
}

// has reports whether key has an entry, expired or not.
func (c *writerCache) has(key table.PartitionKey) bool {
	_, ok := c.entries[key]
	return ok
}

func (c *writerCache) len() int {
	return len(c.entries)
}

func (c *writerCache) sortedKeys(keep func(*cacheEntry) bool) []table.PartitionKey {
	keys := make([]table.PartitionKey, 0, len(c.entries))
	for k, e := range c.entries {
		if keep(e) {
			keys = append(keys, k)
		}
	}
	slices.SortFunc(keys, table.PartitionKey.Compare)
	return keys
}

// remove drops key from the cache before handing its writer to evict, so a
// failed close is never retried.
func (c *writerCache) remove(ctx context.Context, key table.PartitionKey, reason EvictReason) error {
	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	delete(c.entries, key)
	return c.evict(ctx, key, e.w, reason)
}

func (c *writerCache) sweep(ctx context.Context) error {
	now := c.now()
	for _, key := range c.sortedKeys(func(e *cacheEntry) bool { return c.expired(e, now) }) {
		if err := c.remove(ctx, key, EvictIdle); err != nil {
			return err
		}
	}
	return nil
}

func (c *writerCache) get(ctx context.Context, key table.PartitionKey) (Writer, bool, error) {
	if err := c.sweep(ctx); err != nil {
		return nil, false, err
	}
	e, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	e.lastAccess = c.now()
	return e.w, true, nil
}

// put stores w before sweeping, so w stays tracked even if the sweep fails.
func (c *writerCache) put(ctx context.Context, key table.PartitionKey, w Writer) error {
	c.entries[key] = &cacheEntry{w: w, lastAccess: c.now()}
	return c.sweep(ctx)
}

func (c *writerCache) invalidate(ctx context.Context, key table.PartitionKey, reason EvictReason) error {
	if err := c.sweep(ctx); err != nil {
		return err
	}
	return c.remove(ctx, key, reason)
}

func (c *writerCache) invalidateAll(ctx context.Context) error {
	if err := c.sweep(ctx); err != nil {
		return err
	}
	for _, key := range c.sortedKeys(func(*cacheEntry) bool { return true }) {
		if err := c.remove(ctx, key, EvictClose); err != nil {
			return err
		}
	}
	return nil
}

// drain empties the cache without evicting, returning the writers in key
// order.
func (c *writerCache) drain() []Writer {
	keys := c.sortedKeys(func(*cacheEntry) bool { return true })
	ws := make([]Writer, 0, len(keys))
	for _, k := range keys {
		ws = append(ws, c.entries[k].w)
		delete(c.entries, k)
	}
	return ws
}
