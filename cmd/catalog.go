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

package cmd

import (
	"context"
	"log/slog"

	"github.com/cardinalhq/lakesink/config"
	"github.com/cardinalhq/lakesink/internal/catalog"
	"github.com/cardinalhq/lakesink/internal/objstore"
)

// openCatalog builds the catalog described by cfg. The returned func
// releases any database connections.
func openCatalog(ctx context.Context, cfg config.CatalogConfig, provider objstore.Provider) (catalog.Catalog, func(), error) {
	var (
		cat     catalog.Catalog
		cleanup = func() {}
	)

	if cfg.DatabaseURL != "" {
		pool, err := catalog.NewConnectionPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Using database catalog")
		cat = catalog.NewPostgresCatalog(pool, provider)
		cleanup = pool.Close
	} else {
		fc, err := catalog.NewFileCatalog(cfg.File, provider)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("Using file catalog", slog.String("file", cfg.File), slog.Int("tables", len(fc.Tables())))
		cat = fc
	}

	if cfg.CacheTTL > 0 {
		cat = catalog.NewCachingCatalog(cat, cfg.CacheTTL)
	}
	return cat, cleanup, nil
}
