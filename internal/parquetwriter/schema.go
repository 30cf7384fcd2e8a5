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

package parquetwriter

import (
	"fmt"

	"github.com/parquet-go/parquet-go"

	"github.com/cardinalhq/lakesink/internal/table"
)

const pageBufferSize = 256 * 1024

func nodeFor(t table.Type) (parquet.Node, error) {
	switch t {
	case table.TypeBoolean:
		return parquet.Leaf(parquet.BooleanType), nil
	case table.TypeInt:
		return parquet.Int(32), nil
	case table.TypeLong:
		return parquet.Int(64), nil
	case table.TypeFloat:
		return parquet.Leaf(parquet.FloatType), nil
	case table.TypeDouble:
		return parquet.Leaf(parquet.DoubleType), nil
	case table.TypeString:
		return parquet.String(), nil
	case table.TypeBinary:
		return parquet.Leaf(parquet.ByteArrayType), nil
	case table.TypeDate:
		return parquet.Date(), nil
	case table.TypeTimestamp:
		return parquet.Timestamp(parquet.Microsecond), nil
	default:
		return nil, fmt.Errorf("unsupported column type %q", t)
	}
}

// schemaFor converts a table schema into a Parquet schema. Columns that are
// not required are optional.
func schemaFor(s *table.Schema) (*parquet.Schema, error) {
	if s == nil || len(s.Fields()) == 0 {
		return nil, fmt.Errorf("schema has no columns")
	}
	group := make(parquet.Group, len(s.Fields()))
	for _, f := range s.Fields() {
		node, err := nodeFor(f.Type)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", f.Name, err)
		}
		if !f.Required {
			node = parquet.Optional(node)
		}
		group[f.Name] = node
	}
	return parquet.NewSchema("lakesink", group), nil
}

func writerOptions(schema *parquet.Schema) []parquet.WriterOption {
	return []parquet.WriterOption{
		schema,
		parquet.Compression(&parquet.Zstd),
		parquet.PageBufferSize(pageBufferSize),
		parquet.CreatedBy("lakesink", "", ""),
	}
}
