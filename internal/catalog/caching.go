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

package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/cardinalhq/lakesink/internal/table"
)

type cachedTable struct {
	tbl *table.Table
	err error
}

// CachingCatalog memoizes another catalog's answers, errors included, for a
// fixed time.
type CachingCatalog struct {
	inner Catalog
	cache *ttlcache.Cache[table.Identifier, cachedTable]
}

var _ Catalog = (*CachingCatalog)(nil)

func NewCachingCatalog(inner Catalog, ttl time.Duration) *CachingCatalog {
	return &CachingCatalog{
		inner: inner,
		cache: ttlcache.New(
			ttlcache.WithTTL[table.Identifier, cachedTable](ttl),
			ttlcache.WithDisableTouchOnHit[table.Identifier, cachedTable](),
		),
	}
}

func (c *CachingCatalog) LoadTable(ctx context.Context, ident table.Identifier) (*table.Table, error) {
	loader := ttlcache.LoaderFunc[table.Identifier, cachedTable](
		func(cache *ttlcache.Cache[table.Identifier, cachedTable], key table.Identifier) *ttlcache.Item[table.Identifier, cachedTable] {
			tbl, err := c.inner.LoadTable(ctx, key)
			return cache.Set(key, cachedTable{tbl: tbl, err: err}, ttlcache.DefaultTTL)
		},
	)
	v := c.cache.Get(ident, ttlcache.WithLoader(loader))
	if v != nil {
		return v.Value().tbl, v.Value().err
	}
	return nil, errors.New("catalog: failed to load table from cache")
}

// Invalidate drops any cached answer for ident.
func (c *CachingCatalog) Invalidate(ident table.Identifier) {
	c.cache.Delete(ident)
}
