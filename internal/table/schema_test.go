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
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func eventsSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := NewSchema(
		Field{ID: 1, Name: "id", Type: TypeLong, Required: true},
		Field{ID: 2, Name: "ts", Type: TypeTimestamp, Required: true},
		Field{ID: 3, Name: "name", Type: TypeString},
		Field{ID: 4, Name: "count", Type: TypeInt},
		Field{ID: 5, Name: "score", Type: TypeDouble},
		Field{ID: 6, Name: "ratio", Type: TypeFloat},
		Field{ID: 7, Name: "ok", Type: TypeBoolean},
		Field{ID: 8, Name: "raw", Type: TypeBinary},
		Field{ID: 9, Name: "day", Type: TypeDate},
	)
	require.NoError(t, err)
	return s
}

func TestNewSchema_Validation(t *testing.T) {
	_, err := NewSchema()
	assert.Error(t, err)

	_, err = NewSchema(Field{Name: "a", Type: "decimal"})
	assert.ErrorContains(t, err, "unknown type")

	_, err = NewSchema(Field{Name: "a", Type: TypeLong}, Field{Name: "a", Type: TypeString})
	assert.ErrorContains(t, err, "duplicate field name")

	_, err = NewSchema(Field{ID: 1, Name: "a", Type: TypeLong}, Field{ID: 1, Name: "b", Type: TypeString})
	assert.ErrorContains(t, err, "duplicate field id")

	_, err = NewSchema(Field{Type: TypeLong})
	assert.ErrorContains(t, err, "no name")
}

func TestSchema_FieldsAreCopied(t *testing.T) {
	s := eventsSchema(t)
	f := s.Fields()
	f[0].Name = "changed"
	got, ok := s.Field("id")
	require.True(t, ok)
	assert.Equal(t, "id", got.Name)
}

func TestSchema_Conform(t *testing.T) {
	s := eventsSchema(t)
	ts := time.Date(2025, 3, 5, 7, 8, 9, 123456000, time.UTC)

	rec, err := s.Conform(map[string]any{
		"id":    json.Number("42"),
		"ts":    ts,
		"name":  "alpha",
		"count": float64(7),
		"score": 1,
		"ratio": 0.5,
		"ok":    true,
		"raw":   "bytes",
		"day":   "2025-03-05",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(42), rec["id"])
	assert.Equal(t, ts.UnixMicro(), rec["ts"])
	assert.Equal(t, "alpha", rec["name"])
	assert.Equal(t, int32(7), rec["count"])
	assert.Equal(t, float64(1), rec["score"])
	assert.Equal(t, float32(0.5), rec["ratio"])
	assert.Equal(t, true, rec["ok"])
	assert.Equal(t, []byte("bytes"), rec["raw"])
	assert.Equal(t, int32(20152), rec["day"])
}

func TestSchema_ConformTimestampString(t *testing.T) {
	s := eventsSchema(t)
	rec, err := s.Conform(map[string]any{"id": 1, "ts": "2025-01-01T00:00:00Z"})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).UnixMicro(), rec["ts"])
}

func TestSchema_ConformOmitsNulls(t *testing.T) {
	s := eventsSchema(t)
	rec, err := s.Conform(map[string]any{"id": 1, "ts": int64(0), "name": nil})
	require.NoError(t, err)
	assert.Len(t, rec, 2)
	_, ok := rec["name"]
	assert.False(t, ok)
}

func TestSchema_ConformErrors(t *testing.T) {
	s := eventsSchema(t)
	tests := []struct {
		name string
		row  map[string]any
		msg  string
	}{
		{"unknown column", map[string]any{"id": 1, "ts": 1, "extra": 1}, "unknown column"},
		{"missing required", map[string]any{"ts": 1}, "required column \"id\""},
		{"null required", map[string]any{"id": nil, "ts": 1}, "required column \"id\""},
		{"int overflow", map[string]any{"id": 1, "ts": 1, "count": int64(math.MaxInt32) + 1}, "overflows int"},
		{"fractional long", map[string]any{"id": 1.5, "ts": 1}, "not integral"},
		{"float above long range", map[string]any{"id": 1e19, "ts": 1}, "overflows long"},
		{"float at long max", map[string]any{"id": float64(math.MaxInt64), "ts": 1}, "overflows long"},
		{"float below long range", map[string]any{"id": -1e19, "ts": 1}, "overflows long"},
		{"wrong string", map[string]any{"id": 1, "ts": 1, "name": 5}, "cannot use int as string"},
		{"bad timestamp", map[string]any{"id": 1, "ts": "yesterday"}, "column \"ts\""},
		{"bad bool", map[string]any{"id": 1, "ts": 1, "ok": "yes"}, "cannot use string as boolean"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Conform(tt.row)
			require.ErrorIs(t, err, ErrSchemaViolation)
			assert.ErrorContains(t, err, tt.msg)
		})
	}
}

func TestFloorDiv(t *testing.T) {
	assert.Equal(t, int64(-1), floorDiv(-1, secondsPerDay))
	assert.Equal(t, int64(0), floorDiv(0, secondsPerDay))
	assert.Equal(t, int64(1), floorDiv(secondsPerDay, secondsPerDay))
}
