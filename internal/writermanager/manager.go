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

// Package writermanager routes records to per-partition data file writers
// for many destinations at once. It bounds the number of open writers,
// rotates writers that grow too large, closes writers that go idle and, on
// Close, assembles one manifest per destination listing every data file it
// produced.
//
// A Manager is not safe for concurrent use.
package writermanager

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/cardinalhq/lakesink/internal/catalog"
	"github.com/cardinalhq/lakesink/internal/logctx"
	"github.com/cardinalhq/lakesink/internal/manifest"
	"github.com/cardinalhq/lakesink/internal/table"
)

type managerState int

const (
	stateOpen managerState = iota
	stateClosed
	stateAborted
)

// Stats are lifetime counters for one Manager.
type Stats struct {
	Destinations   int
	OpenWriters    int
	WritersCreated int64
	WritersRotated int64
	WritersEvicted int64
	RecordsWritten int64
	Rejected       int64
}

type Manager struct {
	catalog   catalog.Catalog
	factory   WriterFactory
	assembler ManifestAssembler
	cfg       Config
	now       func() time.Time
	logger    *slog.Logger

	openWriters  int
	destinations map[Destination]*destinationState
	manifests    map[Destination][]manifest.File
	state        managerState
	stats        Stats
}

func New(cat catalog.Catalog, factory WriterFactory, assembler ManifestAssembler, cfg Config, opts ...Option) (*Manager, error) {
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	m := &Manager{
		catalog:      cat,
		factory:      factory,
		assembler:    assembler,
		cfg:          cfg,
		now:          time.Now,
		destinations: make(map[Destination]*destinationState),
		manifests:    make(map[Destination][]manifest.File),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

func (m *Manager) log(ctx context.Context) *slog.Logger {
	if m.logger != nil {
		return m.logger
	}
	return logctx.FromContext(ctx)
}

// Write routes row to dest. It returns false, with no state changed, when
// the row would need a new writer and MaxWriters are already open; the
// caller should hold the row and offer it to a later manager.
func (m *Manager) Write(ctx context.Context, dest Destination, row map[string]any) (bool, error) {
	if m.state != stateOpen {
		return false, ErrManagerClosed
	}

	s, err := m.destinationState(ctx, dest)
	if err != nil {
		return false, err
	}
	rec, err := s.tbl.Schema.Conform(row)
	if err != nil {
		return false, fmt.Errorf("table %s: %w", dest.Table, err)
	}

	ok, err := s.write(ctx, rec)
	switch {
	case err != nil:
		return false, err
	case !ok:
		m.stats.Rejected++
		recordRejected(ctx, dest.Table)
	default:
		m.stats.RecordsWritten++
	}
	return ok, nil
}

func (m *Manager) destinationState(ctx context.Context, dest Destination) (*destinationState, error) {
	if s, ok := m.destinations[dest]; ok {
		return s, nil
	}
	tbl, err := m.catalog.LoadTable(ctx, dest.Table)
	if err != nil {
		return nil, &MetadataError{Destination: dest, Err: err}
	}
	if err := tbl.Validate(); err != nil {
		return nil, &MetadataError{Destination: dest, Err: err}
	}
	s := newDestinationState(m, dest, tbl)
	m.destinations[dest] = s
	return s, nil
}

func (m *Manager) sortedDestinations() []Destination {
	return slices.SortedFunc(maps.Keys(m.destinations), Destination.Compare)
}

// Close closes every writer and writes one manifest for each destination
// that produced data files. After a failed Close the manifests must not be
// trusted; the manager stays open so Abort can clean up.
func (m *Manager) Close(ctx context.Context) error {
	if m.state != stateOpen {
		return ErrManagerClosed
	}

	for _, dest := range m.sortedDestinations() {
		s := m.destinations[dest]
		if err := s.writers.invalidateAll(ctx); err != nil {
			return err
		}
		if len(s.dataFiles) == 0 {
			continue
		}

		location := s.manifestLocation()
		mf, err := m.assembler.Assemble(ctx, s.tbl, s.dataFiles, location)
		if err != nil {
			return fmt.Errorf("writermanager: write manifest for %s: %w", dest, err)
		}
		m.manifests[dest] = append(m.manifests[dest], mf)
		s.dataFiles = nil
		recordManifest(ctx, dest.Table)

		m.log(ctx).Info("wrote manifest",
			"table", dest.Table.String(),
			"window", dest.Window.String(),
			"pane", dest.Pane.Index,
			"dataFiles", mf.AddedFiles,
			"rows", mf.AddedRows,
			"location", location)
	}

	if m.openWriters != 0 {
		return fmt.Errorf("%w: %d still open", ErrWriterLeak, m.openWriters)
	}
	clear(m.destinations)
	m.state = stateClosed
	return nil
}

// ManifestFiles returns the manifests written by Close, keyed by
// destination.
func (m *Manager) ManifestFiles() (map[Destination][]manifest.File, error) {
	switch m.state {
	case stateClosed:
		return m.manifests, nil
	case stateAborted:
		return nil, ErrManagerAborted
	default:
		return nil, ErrManagerNotClosed
	}
}

// Abort discards all output: open writers are aborted and every data file
// and manifest already uploaded is deleted. The manager is sealed even if
// some deletions fail.
func (m *Manager) Abort(ctx context.Context) error {
	if m.state != stateOpen {
		return ErrManagerClosed
	}
	m.state = stateAborted

	var result *multierror.Error
	for _, dest := range m.sortedDestinations() {
		s := m.destinations[dest]
		for _, w := range s.writers.drain() {
			w.Abort()
			m.writerAborted(ctx)
		}
		for _, df := range s.dataFiles {
			result = multierror.Append(result, deleteObject(ctx, s.tbl, df.Path))
		}
		for _, mf := range m.manifests[dest] {
			for _, df := range mf.DataFiles {
				result = multierror.Append(result, deleteObject(ctx, s.tbl, df.Path))
			}
			result = multierror.Append(result, deleteObject(ctx, s.tbl, mf.Path))
		}
		s.dataFiles = nil
	}
	clear(m.destinations)
	clear(m.manifests)

	m.log(ctx).Warn("aborted writer manager", "stats", m.Stats())
	return result.ErrorOrNil()
}

// deleteObject removes an object this manager wrote beneath the table
// location. Paths are taken apart textually since partition values in them
// are already escaped.
func deleteObject(ctx context.Context, tbl *table.Table, path string) error {
	rel, ok := strings.CutPrefix(path, tbl.Location.String()+"/")
	if !ok {
		return fmt.Errorf("%s is outside table location %s", path, tbl.Location)
	}
	if err := tbl.IO.DeleteObject(ctx, tbl.Location.Bucket, tbl.Location.Key(rel)); err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	return nil
}

// OpenWriters is the number of writers currently open across all
// destinations.
func (m *Manager) OpenWriters() int {
	return m.openWriters
}

func (m *Manager) Stats() Stats {
	st := m.stats
	st.Destinations = len(m.destinations)
	st.OpenWriters = m.openWriters
	return st
}

func (m *Manager) writerOpened(ctx context.Context, rotated bool) {
	m.openWriters++
	m.stats.WritersCreated++
	if rotated {
		m.stats.WritersRotated++
	}
	recordWriterOpened(ctx)
}

func (m *Manager) writerClosed(ctx context.Context, reason EvictReason) {
	m.openWriters--
	if reason == EvictIdle {
		m.stats.WritersEvicted++
	}
	recordWriterClosed(ctx, reason)
}

func (m *Manager) writerAborted(ctx context.Context) {
	m.openWriters--
	recordWriterClosed(ctx, EvictAbort)
}
