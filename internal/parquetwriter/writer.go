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

// Package parquetwriter writes table records into Parquet data files and
// uploads the finished files to the table's object store.
package parquetwriter

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"github.com/cardinalhq/lakesink/internal/table"
	"github.com/cardinalhq/lakesink/internal/writermanager"
)

var (
	ErrWriterClosed = errors.New("parquetwriter: writer is already closed")
	ErrWriteFailed  = errors.New("parquetwriter: failed to write data")
)

// DefaultRowGroupRows is used when a Factory does not set RowGroupRows.
const DefaultRowGroupRows = 10_000

// Factory creates Parquet writers. Temporary files are created in TmpDir,
// or the system default when it is empty.
type Factory struct {
	TmpDir       string
	RowGroupRows int64
}

var _ writermanager.WriterFactory = (*Factory)(nil)

func NewFactory(tmpDir string, rowGroupRows int64) *Factory {
	return &Factory{TmpDir: tmpDir, RowGroupRows: rowGroupRows}
}

// NewWriter opens a temp file for a data file called name in the partition
// identified by key.
func (f *Factory) NewWriter(_ context.Context, tbl *table.Table, key table.PartitionKey, name string) (writermanager.Writer, error) {
	schema, err := schemaFor(tbl.Schema)
	if err != nil {
		return nil, fmt.Errorf("table %s: %w", tbl.Ident, err)
	}

	tmp, err := os.CreateTemp(f.TmpDir, "lakesink-*.parquet")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}

	rowGroupRows := f.RowGroupRows
	if rowGroupRows <= 0 {
		rowGroupRows = DefaultRowGroupRows
	}

	out := &countingWriter{w: tmp}
	return &Writer{
		tbl:          tbl,
		key:          key,
		name:         name,
		tmp:          tmp,
		out:          out,
		pw:           parquet.NewGenericWriter[map[string]any](out, writerOptions(schema)...),
		rowGroupRows: rowGroupRows,
	}, nil
}

// Writer streams records for one partition into a local Parquet file.
type Writer struct {
	tbl  *table.Table
	key  table.PartitionKey
	name string

	tmp *os.File
	out *countingWriter
	pw  *parquet.GenericWriter[map[string]any]

	rowGroupRows    int64
	records         int64
	bufferedRows    int64
	bufferedBytes   int64
	flushedEstimate int64
	closed          bool
}

var _ writermanager.Writer = (*Writer)(nil)

func (w *Writer) Write(rec table.Record) error {
	if w.closed {
		return ErrWriterClosed
	}
	if _, err := w.pw.Write([]map[string]any{rec}); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	w.records++
	w.bufferedRows++
	w.bufferedBytes += estimateRecordSize(rec)

	if w.bufferedRows >= w.rowGroupRows {
		if err := w.pw.Flush(); err != nil {
			return fmt.Errorf("%w: flush row group: %w", ErrWriteFailed, err)
		}
		w.flushedEstimate += w.bufferedBytes
		w.bufferedRows = 0
		w.bufferedBytes = 0
	}
	return nil
}

// BytesWritten estimates the size of the file so far. parquet-go may hold
// flushed row groups in memory until Close, so the estimate of every row
// written is used until the bytes that reached the file overtake it. It
// never decreases.
func (w *Writer) BytesWritten() int64 {
	return max(w.out.n, w.flushedEstimate+w.bufferedBytes)
}

// Close finishes the file, uploads it and removes the local copy.
func (w *Writer) Close(ctx context.Context) (table.DataFile, error) {
	if w.closed {
		return table.DataFile{}, ErrWriterClosed
	}
	w.closed = true
	defer w.removeTemp()

	if err := w.pw.Close(); err != nil {
		return table.DataFile{}, fmt.Errorf("failed to close parquet writer: %w", err)
	}
	if err := w.tmp.Close(); err != nil {
		return table.DataFile{}, fmt.Errorf("failed to close temp file: %w", err)
	}

	loc := w.tbl.DataLocation(w.key)
	filename := w.name + ".parquet"
	if err := w.tbl.IO.UploadObject(ctx, loc.Bucket, loc.Key(filename), w.tmp.Name()); err != nil {
		return table.DataFile{}, fmt.Errorf("failed to upload %s: %w", filename, err)
	}

	return table.DataFile{
		Path:          loc.Join(filename).String(),
		Format:        table.FormatParquet,
		Partition:     w.key,
		RecordCount:   w.records,
		FileSizeBytes: w.out.n,
	}, nil
}

// Abort discards the local file. It is safe to call more than once.
func (w *Writer) Abort() {
	if w.closed {
		return
	}
	w.closed = true
	_ = w.tmp.Close()
	w.removeTemp()
}

func (w *Writer) removeTemp() {
	_ = os.Remove(w.tmp.Name())
}
