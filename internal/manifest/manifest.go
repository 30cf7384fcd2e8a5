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

// Package manifest assembles the per-destination commit manifest: a Parquet
// file listing every data file a destination produced.
package manifest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/cardinalhq/lakesink/internal/objstore"
	"github.com/cardinalhq/lakesink/internal/table"
)

var tracer = otel.Tracer("github.com/cardinalhq/lakesink/internal/manifest")

var ErrNoDataFiles = errors.New("manifest: no data files")

// StatusAdded marks an entry for a file added by this manifest.
const StatusAdded = "ADDED"

// Entry is one row of a manifest file.
type Entry struct {
	Status        string `parquet:"status"`
	FilePath      string `parquet:"file_path"`
	FileFormat    string `parquet:"file_format"`
	SpecID        int32  `parquet:"spec_id"`
	Partition     string `parquet:"partition"`
	RecordCount   int64  `parquet:"record_count"`
	FileSizeBytes int64  `parquet:"file_size_in_bytes"`
}

// File describes a written manifest.
type File struct {
	Path   string
	Length int64
	SpecID int

	AddedFiles int
	AddedRows  int64

	DataFiles []table.DataFile
}

// Assembler writes manifests through the table's storage client.
type Assembler struct {
	TmpDir string
}

func NewAssembler(tmpDir string) *Assembler {
	return &Assembler{TmpDir: tmpDir}
}

// Assemble writes one manifest listing files to location and returns its
// summary. files must not be empty.
func (a *Assembler) Assemble(ctx context.Context, tbl *table.Table, files []table.DataFile, location string) (File, error) {
	ctx, span := tracer.Start(ctx, "manifest.Assemble", trace.WithAttributes(
		attribute.String("table", tbl.Ident.String()),
		attribute.Int("files", len(files)),
	))
	defer span.End()

	mf, err := a.assemble(ctx, tbl, files, location)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return mf, err
}

func (a *Assembler) assemble(ctx context.Context, tbl *table.Table, files []table.DataFile, location string) (File, error) {
	if len(files) == 0 {
		return File{}, ErrNoDataFiles
	}
	loc, err := objstore.ParseLocation(location)
	if err != nil {
		return File{}, err
	}

	mf := File{
		Path:       location,
		SpecID:     tbl.Spec.ID(),
		AddedFiles: len(files),
		DataFiles:  append([]table.DataFile(nil), files...),
	}
	entries := make([]Entry, 0, len(files))
	for _, f := range files {
		mf.AddedRows += f.RecordCount
		entries = append(entries, Entry{
			Status:        StatusAdded,
			FilePath:      f.Path,
			FileFormat:    string(f.Format),
			SpecID:        int32(f.SpecID()),
			Partition:     f.Partition.Path(),
			RecordCount:   f.RecordCount,
			FileSizeBytes: f.FileSizeBytes,
		})
	}

	tmp, err := os.CreateTemp(a.TmpDir, "lakesink-manifest-*.parquet")
	if err != nil {
		return File{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := writeEntries(tmp, entries); err != nil {
		_ = tmp.Close()
		return File{}, err
	}
	st, err := tmp.Stat()
	if err != nil {
		_ = tmp.Close()
		return File{}, err
	}
	mf.Length = st.Size()
	if err := tmp.Close(); err != nil {
		return File{}, err
	}

	if err := tbl.IO.UploadObject(ctx, loc.Bucket, loc.Key(), tmp.Name()); err != nil {
		return File{}, fmt.Errorf("failed to upload manifest %s: %w", location, err)
	}
	return mf, nil
}

func writeEntries(w io.Writer, entries []Entry) error {
	pw := parquet.NewGenericWriter[Entry](w, parquet.Compression(&parquet.Zstd))
	if _, err := pw.Write(entries); err != nil {
		_ = pw.Close()
		return fmt.Errorf("failed to write manifest entries: %w", err)
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to close manifest writer: %w", err)
	}
	return nil
}

// Read returns every entry of a manifest file.
func Read(r io.ReaderAt, size int64) ([]Entry, error) {
	entries, err := parquet.Read[Entry](r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	return entries, nil
}
