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
	"fmt"
	"strconv"

	"github.com/cardinalhq/lakesink/internal/idgen"
	"github.com/cardinalhq/lakesink/internal/table"
)

// destinationState holds the writers and finished data files of one
// destination. The table handle is resolved once, when the state is made.
type destinationState struct {
	m    *Manager
	dest Destination
	tbl  *table.Table

	// stateToken keeps file names unique across manager instances.
	stateToken   string
	writers      *writerCache
	writerCounts map[table.PartitionKey]int
	dataFiles    []table.DataFile
}

func newDestinationState(m *Manager, dest Destination, tbl *table.Table) *destinationState {
	s := &destinationState{
		m:            m,
		dest:         dest,
		tbl:          tbl,
		stateToken:   idgen.NewStateToken(),
		writerCounts: make(map[table.PartitionKey]int),
	}
	s.writers = newWriterCache(m.cfg.IdleTimeout, m.now, s.evict)
	return s
}

// write routes rec to its partition's writer. It returns false without
// touching any state when the partition has no writer and the manager has
// no room for another.
func (s *destinationState) write(ctx context.Context, rec table.Record) (bool, error) {
	key := s.tbl.Spec.Key(rec)
	if !s.writers.has(key) && s.m.openWriters >= s.m.cfg.MaxWriters {
		return false, nil
	}

	w, err := s.fetchWriterForPartition(ctx, key)
	if err != nil {
		return false, err
	}
	if err := w.Write(rec); err != nil {
		return false, fmt.Errorf("write to table %s, partition %s: %w", s.dest.Table, key, err)
	}
	return true, nil
}

func (s *destinationState) fetchWriterForPartition(ctx context.Context, key table.PartitionKey) (Writer, error) {
	w, ok, err := s.writers.get(ctx, key)
	if err != nil {
		return nil, err
	}
	if ok && w.BytesWritten() <= s.m.cfg.MaxFileSize {
		return w, nil
	}

	if err := s.writers.invalidate(ctx, key, EvictRotation); err != nil {
		return nil, err
	}
	return s.createWriter(ctx, key, ok)
}

func (s *destinationState) createWriter(ctx context.Context, key table.PartitionKey, rotated bool) (Writer, error) {
	s.writerCounts[key]++
	name := s.m.cfg.FilePrefix + "_" + s.stateToken + "_" + strconv.Itoa(s.writerCounts[key])

	w, err := s.m.factory.NewWriter(ctx, s.tbl, key, name)
	if err != nil {
		return nil, fmt.Errorf("create writer for table %s, partition %s: %w", s.dest.Table, key, err)
	}
	s.m.writerOpened(ctx, rotated)

	if err := s.writers.put(ctx, key, w); err != nil {
		return nil, err
	}
	s.m.log(ctx).Debug("opened writer",
		"table", s.dest.Table.String(),
		"partition", key.String(),
		"name", name)
	return w, nil
}

// evict closes a writer removed from the cache and collects its data file.
// The open writer count drops even when the close fails.
func (s *destinationState) evict(ctx context.Context, key table.PartitionKey, w Writer, reason EvictReason) error {
	df, err := w.Close(ctx)
	s.m.writerClosed(ctx, reason)
	if err != nil {
		return &EvictionError{Destination: s.dest, Partition: key, Reason: reason, Err: err}
	}
	s.dataFiles = append(s.dataFiles, df)
	if reason == EvictIdle {
		s.m.log(ctx).Info("closed idle writer",
			"table", s.dest.Table.String(),
			"partition", key.String(),
			"records", df.RecordCount)
	}
	return nil
}

// manifestLocation is where this destination's manifest for its pane goes.
func (s *destinationState) manifestLocation() string {
	name := fmt.Sprintf("%s-%s-%d.manifest.parquet", s.m.cfg.FilePrefix, s.stateToken, s.dest.Pane.Index)
	return s.tbl.MetadataLocation().Join(name).String()
}
