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
	"io"

	"github.com/cardinalhq/lakesink/internal/table"
)

// countingWriter tracks how many bytes reached the underlying file.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// estimateRecordSize guesses the encoded size of a buffered record before
// compression.
func estimateRecordSize(rec table.Record) int64 {
	size := int64(0)
	for _, v := range rec {
		switch val := v.(type) {
		case string:
			size += int64(len(val)) + 4
		case []byte:
			size += int64(len(val)) + 4
		case bool:
			size++
		case int32, float32:
			size += 4
		case int64, float64:
			size += 8
		default:
			size += 8
		}
	}
	return size
}
