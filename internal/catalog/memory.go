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
	"fmt"
	"sync"

	"github.com/cardinalhq/lakesink/internal/table"
)

// MemoryCatalog holds prebuilt tables.
type MemoryCatalog struct {
	mu     sync.Mutex
	tables map[table.Identifier]*table.Table
	loads  map[table.Identifier]int
}

var _ Catalog = (*MemoryCatalog)(nil)

func NewMemoryCatalog(tables ...*table.Table) *MemoryCatalog {
	c := &MemoryCatalog{
		tables: make(map[table.Identifier]*table.Table),
		loads:  make(map[table.Identifier]int),
	}
	for _, t := range tables {
		c.Put(t)
	}
	return c
}

func (c *MemoryCatalog) Put(t *table.Table) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tables[t.Ident] = t
}

func (c *MemoryCatalog) LoadTable(_ context.Context, ident table.Identifier) (*table.Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads[ident]++
	t, ok := c.tables[ident]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, ident)
	}
	return t, nil
}

// Loads reports how many times ident was requested.
func (c *MemoryCatalog) Loads(ident table.Identifier) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads[ident]
}
