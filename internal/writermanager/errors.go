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
	"errors"
	"fmt"

	"github.com/cardinalhq/lakesink/internal/table"
)

var (
	ErrManagerClosed    = errors.New("writermanager: manager is closed")
	ErrManagerNotClosed = errors.New("writermanager: manager must be closed before reading manifests")
	ErrManagerAborted   = errors.New("writermanager: manager was aborted")
	ErrWriterLeak       = errors.New("writermanager: writers still open after close")
)

// MetadataError reports that a destination's table could not be resolved.
type MetadataError struct {
	Destination Destination
	Err         error
}

func (e *MetadataError) Error() string {
	return fmt.Sprintf("writermanager: resolve table for %s: %v", e.Destination, e.Err)
}

func (e *MetadataError) Unwrap() error { return e.Err }

// EvictReason says why a writer left the cache.
type EvictReason string

const (
	EvictIdle     EvictReason = "idle"
	EvictRotation EvictReason = "rotation"
	EvictClose    EvictReason = "close"
	EvictAbort    EvictReason = "abort"
)

// EvictionError reports that closing an evicted writer failed. The writer
// is no longer tracked and its output is not in any manifest.
type EvictionError struct {
	Destination Destination
	Partition   table.PartitionKey
	Reason      EvictReason
	Err         error
}

func (e *EvictionError) Error() string {
	return fmt.Sprintf("writermanager: close %s writer for table %s, partition %s: %v",
		e.Reason, e.Destination.Table, e.Partition, e.Err)
}

func (e *EvictionError) Unwrap() error { return e.Err }
