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

package table

// FileFormat names the encoding of a data file.
type FileFormat string

const FormatParquet FileFormat = "parquet"

// DataFile describes one completed data file. It is produced exactly once
// when a writer closes and never modified afterwards.
type DataFile struct {
	// Path is the full storage URI of the file.
	Path string

	Format    FileFormat
	Partition PartitionKey

	RecordCount   int64
	FileSizeBytes int64
}

// SpecID is the partition spec the file was written under.
func (f DataFile) SpecID() int {
	return f.Partition.SpecID()
}
