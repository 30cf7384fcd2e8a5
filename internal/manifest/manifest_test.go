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

package manifest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/lakesink/internal/objstore"
	"github.com/cardinalhq/lakesink/internal/table"
)

func fileTable(t *testing.T, root string) *table.Table {
	t.Helper()
	schema := table.MustNewSchema(table.Field{ID: 1, Name: "region", Type: table.TypeString})
	spec, err := table.NewPartitionSpec(4, schema, table.PartitionField{
		SourceName: "region",
		Transform:  table.Transform{Kind: table.TransformIdentity},
	})
	require.NoError(t, err)
	io, err := objstore.NewFileProvider("/").ClientFor(t.Context(), objstore.Location{}, objstore.Profile{})
	require.NoError(t, err)
	return &table.Table{
		Ident:    table.Identifier{Namespace: "ns", Name: "t"},
		Schema:   schema,
		Spec:     spec,
		Location: objstore.MustParseLocation("file://" + root),
		IO:       io,
	}
}

func TestAssembler_RoundTrip(t *testing.T) {
	root := t.TempDir()
	tbl := fileTable(t, root)
	east := tbl.Spec.Key(table.Record{"region": "east"})
	west := tbl.Spec.Key(table.Record{"region": "west"})

	files := []table.DataFile{
		{Path: "file:///x/data/region=east/a.parquet", Format: table.FormatParquet, Partition: east, RecordCount: 10, FileSizeBytes: 100},
		{Path: "file:///x/data/region=west/b.parquet", Format: table.FormatParquet, Partition: west, RecordCount: 5, FileSizeBytes: 50},
	}
	location := tbl.MetadataLocation().Join("p-tok-0.manifest.parquet").String()

	mf, err := NewAssembler(t.TempDir()).Assemble(t.Context(), tbl, files, location)
	require.NoError(t, err)
	assert.Equal(t, location, mf.Path)
	assert.Equal(t, 4, mf.SpecID)
	assert.Equal(t, 2, mf.AddedFiles)
	assert.Equal(t, int64(15), mf.AddedRows)
	assert.Equal(t, files, mf.DataFiles)

	fh, err := os.Open(filepath.Join(root, "metadata", "p-tok-0.manifest.parquet"))
	require.NoError(t, err)
	defer func() { _ = fh.Close() }()
	st, err := fh.Stat()
	require.NoError(t, err)
	assert.Equal(t, mf.Length, st.Size())

	entries, err := Read(fh, st.Size())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, Entry{
		Status:        StatusAdded,
		FilePath:      files[0].Path,
		FileFormat:    "parquet",
		SpecID:        4,
		Partition:     "region=east",
		RecordCount:   10,
		FileSizeBytes: 100,
	}, entries[0])
	assert.Equal(t, "region=west", entries[1].Partition)
}

func TestAssembler_NoDataFiles(t *testing.T) {
	tbl := fileTable(t, t.TempDir())
	_, err := NewAssembler("").Assemble(t.Context(), tbl, nil, "file:///tmp/m.parquet")
	assert.ErrorIs(t, err, ErrNoDataFiles)
}

func TestAssembler_BadLocation(t *testing.T) {
	tbl := fileTable(t, t.TempDir())
	files := []table.DataFile{{Path: "x", Partition: tbl.Spec.Key(table.Record{"region": "a"}), RecordCount: 1}}
	_, err := NewAssembler("").Assemble(t.Context(), tbl, files, "ftp://nope/m.parquet")
	assert.Error(t, err)
}

type failingClient struct{ err error }

func (c failingClient) UploadObject(context.Context, string, string, string) error { return c.err }
func (c failingClient) DownloadObject(context.Context, string, string, string) (string, int64, bool, error) {
	return "", 0, false, c.err
}
func (c failingClient) DeleteObject(context.Context, string, string) error { return c.err }

func TestAssembler_UploadFailure(t *testing.T) {
	tmpDir := t.TempDir()
	tbl := fileTable(t, t.TempDir())
	boom := errors.New("bucket gone")
	tbl.IO = failingClient{err: boom}

	files := []table.DataFile{{Path: "x", Partition: tbl.Spec.Key(table.Record{"region": "a"}), RecordCount: 1}}
	_, err := NewAssembler(tmpDir).Assemble(t.Context(), tbl, files, "s3://bucket/m.parquet")
	assert.ErrorIs(t, err, boom)

	leftovers, err := os.ReadDir(tmpDir)
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}
