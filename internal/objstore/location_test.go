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

package objstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLocation(t *testing.T) {
	tests := []struct {
		raw     string
		want    Location
		wantErr bool
	}{
		{raw: "s3://bucket/warehouse/db/events", want: Location{Scheme: SchemeS3, Bucket: "bucket", Prefix: "warehouse/db/events"}},
		{raw: "s3://bucket", want: Location{Scheme: SchemeS3, Bucket: "bucket"}},
		{raw: "s3://bucket/a//b/", want: Location{Scheme: SchemeS3, Bucket: "bucket", Prefix: "a/b"}},
		{raw: "gs://lake/t", want: Location{Scheme: SchemeGCS, Bucket: "lake", Prefix: "t"}},
		{raw: "az://container/x/y", want: Location{Scheme: SchemeAzure, Bucket: "container", Prefix: "x/y"}},
		{raw: "file:///tmp/warehouse/t", want: Location{Scheme: SchemeFile, Prefix: "tmp/warehouse/t"}},
		{raw: "file:///", wantErr: true},
		{raw: "s3:///nobucket", wantErr: true},
		{raw: "/just/a/path", wantErr: true},
		{raw: "hdfs://nn/path", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ParseLocation(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLocation_StringRoundTrip(t *testing.T) {
	for _, raw := range []string{"s3://bucket/a/b", "s3://bucket", "file:///tmp/x", "az://c/p"} {
		loc := MustParseLocation(raw)
		assert.Equal(t, raw, loc.String())
	}
}

func TestLocation_JoinAndKey(t *testing.T) {
	loc := MustParseLocation("s3://bucket/warehouse/events")

	assert.Equal(t, "warehouse/events/data/day=1/f.parquet", loc.Key("data", "day=1", "f.parquet"))
	assert.Equal(t, "warehouse/events/metadata", loc.Join("/metadata/").Prefix)
	assert.Equal(t, "bucket", loc.Join("x").Bucket)

	root := MustParseLocation("s3://bucket")
	assert.Equal(t, "f.parquet", root.Key("", "f.parquet"))
}
