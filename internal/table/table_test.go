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

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cardinalhq/lakesink/internal/objstore"
)

func TestParseIdentifier(t *testing.T) {
	id, err := ParseIdentifier("analytics.web.events")
	require.NoError(t, err)
	assert.Equal(t, Identifier{Namespace: "analytics.web", Name: "events"}, id)
	assert.Equal(t, "analytics.web.events", id.String())

	for _, bad := range []string{"", "events", ".events", "db."} {
		_, err := ParseIdentifier(bad)
		assert.Error(t, err, bad)
	}
}

func TestTable_Validate(t *testing.T) {
	tbl := &Table{Ident: Identifier{Namespace: "db", Name: "t"}}
	err := tbl.Validate()
	require.Error(t, err)
	assert.ErrorContains(t, err, "missing schema")
	assert.ErrorContains(t, err, "missing storage client")

	dir := t.TempDir()
	io, err := objstore.NewFileProvider(dir).ClientFor(t.Context(), objstore.Location{}, objstore.Profile{})
	require.NoError(t, err)
	tbl = &Table{
		Ident:    Identifier{Namespace: "db", Name: "t"},
		Schema:   MustNewSchema(Field{Name: "a", Type: TypeLong}),
		Spec:     Unpartitioned(),
		Location: objstore.MustParseLocation("s3://bucket/wh/t"),
		IO:       io,
	}
	require.NoError(t, tbl.Validate())
}

func TestTable_Locations(t *testing.T) {
	s := MustNewSchema(Field{Name: "name", Type: TypeString})
	spec, err := NewPartitionSpec(0, s, PartitionField{SourceName: "name", Transform: Transform{Kind: TransformIdentity}})
	require.NoError(t, err)
	tbl := &Table{Location: objstore.MustParseLocation("s3://bucket/wh/t"), Spec: spec, Schema: s}

	key := spec.Key(Record{"name": "a"})
	assert.Equal(t, "s3://bucket/wh/t/data/name=a", tbl.DataLocation(key).String())
	assert.Equal(t, "s3://bucket/wh/t/data", tbl.DataLocation(Unpartitioned().Key(nil)).String())
	assert.Equal(t, "s3://bucket/wh/t/metadata", tbl.MetadataLocation().String())
}

func TestDataFile_SpecID(t *testing.T) {
	s := MustNewSchema(Field{Name: "name", Type: TypeString})
	spec, err := NewPartitionSpec(7, s, PartitionField{SourceName: "name", Transform: Transform{Kind: TransformIdentity}})
	require.NoError(t, err)
	f := DataFile{Partition: spec.Key(Record{"name": "a"})}
	assert.Equal(t, 7, f.SpecID())
}
