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

	"github.com/cardinalhq/lakesink/internal/manifest"
	"github.com/cardinalhq/lakesink/internal/table"
)

// Writer appends records to one data file.
type Writer interface {
	Write(rec table.Record) error

	// BytesWritten is the current size of the output, used for rotation.
	BytesWritten() int64

	// Close finishes the file and returns its descriptor. It is called at
	// most once.
	Close(ctx context.Context) (table.DataFile, error)

	// Abort discards the output without producing a descriptor.
	Abort()
}

// WriterFactory opens a writer for one partition of a table. name is unique
// across rotations and manager instances.
type WriterFactory interface {
	NewWriter(ctx context.Context, tbl *table.Table, key table.PartitionKey, name string) (Writer, error)
}

// ManifestAssembler persists a manifest listing files at location.
type ManifestAssembler interface {
	Assemble(ctx context.Context, tbl *table.Table, files []table.DataFile, location string) (manifest.File, error)
}
