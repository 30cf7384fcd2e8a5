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
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/lakesink/internal/catalog"
	"github.com/cardinalhq/lakesink/internal/manifest"
	"github.com/cardinalhq/lakesink/internal/objstore"
	"github.com/cardinalhq/lakesink/internal/table"
)

var eventsID = table.Identifier{Namespace: "ns", Name: "events"}

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

type fakeWriter struct {
	tbl      *table.Table
	key      table.PartitionKey
	name     string
	perRec   int64
	records  int64
	bytes    int64
	closes   int
	aborted  bool
	closeErr error
	writeErr error
}

func (w *fakeWriter) Write(table.Record) error {
	if w.writeErr != nil {
		return w.writeErr
	}
	if w.closes > 0 || w.aborted {
		return errors.New("write after close")
	}
	w.records++
	w.bytes += w.perRec
	return nil
}

func (w *fakeWriter) BytesWritten() int64 { return w.bytes }

func (w *fakeWriter) Close(context.Context) (table.DataFile, error) {
	w.closes++
	if w.closeErr != nil {
		return table.DataFile{}, w.closeErr
	}
	return table.DataFile{
		Path:          w.tbl.DataLocation(w.key).Join(w.name + ".parquet").String(),
		Format:        table.FormatParquet,
		Partition:     w.key,
		RecordCount:   w.records,
		FileSizeBytes: w.bytes,
	}, nil
}

func (w *fakeWriter) Abort() { w.aborted = true }

type fakeFactory struct {
	perRec  int64
	err     error
	writers []*fakeWriter
}

func (f *fakeFactory) NewWriter(_ context.Context, tbl *table.Table, key table.PartitionKey, name string) (Writer, error) {
	if f.err != nil {
		return nil, f.err
	}
	w := &fakeWriter{tbl: tbl, key: key, name: name, perRec: f.perRec}
	f.writers = append(f.writers, w)
	return w, nil
}

func (f *fakeFactory) byName(name string) *fakeWriter {
	for _, w := range f.writers {
		if w.name == name {
			return w
		}
	}
	return nil
}

type assembleCall struct {
	table    table.Identifier
	files    []table.DataFile
	location string
}

type fakeAssembler struct {
	err   error
	calls []assembleCall
}

func (a *fakeAssembler) Assemble(_ context.Context, tbl *table.Table, files []table.DataFile, location string) (manifest.File, error) {
	if a.err != nil {
		return manifest.File{}, a.err
	}
	a.calls = append(a.calls, assembleCall{table: tbl.Ident, files: append([]table.DataFile(nil), files...), location: location})
	mf := manifest.File{Path: location, SpecID: tbl.Spec.ID(), AddedFiles: len(files), DataFiles: files}
	for _, f := range files {
		mf.AddedRows += f.RecordCount
	}
	return mf, nil
}

type recordingClient struct {
	mu      sync.Mutex
	deleted []string
}

func (c *recordingClient) UploadObject(context.Context, string, string, string) error { return nil }
func (c *recordingClient) DownloadObject(context.Context, string, string, string) (string, int64, bool, error) {
	return "", 0, true, nil
}
func (c *recordingClient) DeleteObject(_ context.Context, bucket, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, bucket+"/"+key)
	return nil
}

func eventsTable(t *testing.T, ident table.Identifier, io objstore.Client) *table.Table {
	t.Helper()
	schema := table.MustNewSchema(
		table.Field{ID: 1, Name: "part", Type: table.TypeString, Required: true},
		table.Field{ID: 2, Name: "n", Type: table.TypeLong},
	)
	spec, err := table.NewPartitionSpec(1, schema, table.PartitionField{
		SourceName: "part",
		Transform:  table.Transform{Kind: table.TransformIdentity},
	})
	require.NoError(t, err)
	return &table.Table{
		Ident:    ident,
		Schema:   schema,
		Spec:     spec,
		Location: objstore.MustParseLocation("s3://lake/wh/" + ident.Name),
		IO:       io,
	}
}

type harness struct {
	m         *Manager
	clock     *fakeClock
	factory   *fakeFactory
	assembler *fakeAssembler
	catalog   *catalog.MemoryCatalog
	io        *recordingClient
}

func newHarness(t *testing.T, cfg Config) *harness {
	t.Helper()
	h := &harness{
		clock:     newFakeClock(),
		factory:   &fakeFactory{perRec: 60},
		assembler: &fakeAssembler{},
		io:        &recordingClient{},
	}
	h.catalog = catalog.NewMemoryCatalog(
		eventsTable(t, eventsID, h.io),
		eventsTable(t, table.Identifier{Namespace: "ns", Name: "clicks"}, h.io),
	)
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = "prefix"
	}
	m, err := New(h.catalog, h.factory, h.assembler, cfg, WithClock(h.clock.Now))
	require.NoError(t, err)
	h.m = m
	return h
}

func (h *harness) write(t *testing.T, dest Destination, part string) bool {
	t.Helper()
	ok, err := h.m.Write(t.Context(), dest, map[string]any{"part": part, "n": 1})
	require.NoError(t, err)
	return ok
}

func (h *harness) state(dest Destination) *destinationState {
	return h.m.destinations[dest]
}
