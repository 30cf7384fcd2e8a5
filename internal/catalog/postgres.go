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
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgx-contrib/pgxotel"
	"gopkg.in/yaml.v3"

	"github.com/cardinalhq/lakesink/internal/objstore"
	"github.com/cardinalhq/lakesink/internal/table"
)

// CreateTablesSQL creates the table read by PostgresCatalog.
const CreateTablesSQL = `CREATE TABLE IF NOT EXISTS lakesink_tables (
  namespace      TEXT  NOT NULL,
  name           TEXT  NOT NULL,
  location       TEXT  NOT NULL,
  storage        JSONB NOT NULL DEFAULT '{}'::jsonb,
  schema         JSONB NOT NULL,
  partition_spec JSONB NOT NULL DEFAULT '{}'::jsonb,
  PRIMARY KEY (namespace, name)
)`

const loadTableSQL = `SELECT location, storage, schema, partition_spec
FROM lakesink_tables
WHERE namespace = $1 AND name = $2`

// RowQuerier is the subset of pgxpool.Pool used by PostgresCatalog.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresCatalog reads table definitions from the lakesink_tables table.
type PostgresCatalog struct {
	db       RowQuerier
	provider objstore.Provider
}

var _ Catalog = (*PostgresCatalog)(nil)

func NewPostgresCatalog(db RowQuerier, provider objstore.Provider) *PostgresCatalog {
	return &PostgresCatalog{db: db, provider: provider}
}

// NewConnectionPool creates a pgx pool for url with query tracing enabled.
func NewConnectionPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, err
	}

	cfg.ConnConfig.Tracer = &pgxotel.QueryTracer{
		Name: "catalog",
	}

	return pgxpool.NewWithConfig(ctx, cfg)
}

func (c *PostgresCatalog) LoadTable(ctx context.Context, ident table.Identifier) (*table.Table, error) {
	var (
		location                    string
		storage, schema, partitions []byte
	)
	err := c.db.QueryRow(ctx, loadTableSQL, ident.Namespace, ident.Name).
		Scan(&location, &storage, &schema, &partitions)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, ident)
	}
	if err != nil {
		return nil, fmt.Errorf("catalog: load %s: %w", ident, err)
	}

	def := TableDefinition{
		Namespace: ident.Namespace,
		Name:      ident.Name,
		Location:  location,
	}
	// JSON is a subset of YAML, so the yaml tags on the definitions apply.
	if err := decodeColumn("storage", storage, &def.Storage); err != nil {
		return nil, fmt.Errorf("catalog: load %s: %w", ident, err)
	}
	if err := decodeColumn("schema", schema, &def.Schema); err != nil {
		return nil, fmt.Errorf("catalog: load %s: %w", ident, err)
	}
	if err := decodeColumn("partition_spec", partitions, &def.PartitionSpec); err != nil {
		return nil, fmt.Errorf("catalog: load %s: %w", ident, err)
	}

	return def.Build(ctx, c.provider)
}

func decodeColumn(name string, raw []byte, out any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := yaml.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s column: %w", name, err)
	}
	return nil
}
