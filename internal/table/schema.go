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
	"errors"
	"fmt"
	"math"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
)

// Type is a column type.
type Type string

const (
	TypeBoolean   Type = "boolean"
	TypeInt       Type = "int"
	TypeLong      Type = "long"
	TypeFloat     Type = "float"
	TypeDouble    Type = "double"
	TypeString    Type = "string"
	TypeBinary    Type = "binary"
	TypeDate      Type = "date"
	TypeTimestamp Type = "timestamp"
)

var knownTypes = mapset.NewSet(
	TypeBoolean, TypeInt, TypeLong, TypeFloat, TypeDouble,
	TypeString, TypeBinary, TypeDate, TypeTimestamp,
)

// Field is one column of a schema.
type Field struct {
	ID       int
	Name     string
	Type     Type
	Required bool
}

// Schema is an ordered, validated set of fields.
type Schema struct {
	fields []Field
	index  map[string]int
}

// Record is a row conformed to a schema: every value has the Go type the
// column's Type maps to (see Conform), and null values are absent.
type Record map[string]any

var ErrSchemaViolation = errors.New("table: record violates schema")

// NewSchema validates fields and returns a schema.
func NewSchema(fields ...Field) (*Schema, error) {
	if len(fields) == 0 {
		return nil, errors.New("table: schema has no fields")
	}
	names := mapset.NewThreadUnsafeSet[string]()
	ids := mapset.NewThreadUnsafeSet[int]()
	index := make(map[string]int, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("table: field %d has no name", i)
		}
		if !knownTypes.Contains(f.Type) {
			return nil, fmt.Errorf("table: field %q has unknown type %q", f.Name, f.Type)
		}
		if !names.Add(f.Name) {
			return nil, fmt.Errorf("table: duplicate field name %q", f.Name)
		}
		if f.ID != 0 && !ids.Add(f.ID) {
			return nil, fmt.Errorf("table: duplicate field id %d", f.ID)
		}
		index[f.Name] = i
	}
	return &Schema{fields: append([]Field(nil), fields...), index: index}, nil
}

// MustNewSchema is like NewSchema but panics on error.
func MustNewSchema(fields ...Field) *Schema {
	s, err := NewSchema(fields...)
	if err != nil {
		panic(err)
	}
	return s
}

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []Field {
	return append([]Field(nil), s.fields...)
}

// Field looks up a field by name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.index[name]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Conform converts a loosely typed row into a Record. Unknown columns and
// missing required values are rejected. Values are coerced as follows:
//
//	boolean   bool
//	int       int32
//	long      int64
//	float     float32
//	double    float64
//	string    string
//	binary    []byte
//	date      int32 days since the Unix epoch
//	timestamp int64 microseconds since the Unix epoch, UTC
//
// Integer inputs may be any Go integer type, an integral float64, or a
// json.Number. Dates and timestamps also accept time.Time and strings.
func (s *Schema) Conform(row map[string]any) (Record, error) {
	for name := range row {
		if _, ok := s.index[name]; !ok {
			return nil, fmt.Errorf("%w: unknown column %q", ErrSchemaViolation, name)
		}
	}

	rec := make(Record, len(row))
	for _, f := range s.fields {
		v, ok := row[f.Name]
		if !ok || v == nil {
			if f.Required {
				return nil, fmt.Errorf("%w: required column %q is missing", ErrSchemaViolation, f.Name)
			}
			continue
		}
		cv, err := coerce(f.Type, v)
		if err != nil {
			return nil, fmt.Errorf("%w: column %q: %v", ErrSchemaViolation, f.Name, err)
		}
		rec[f.Name] = cv
	}
	return rec, nil
}

func coerce(t Type, v any) (any, error) {
	switch t {
	case TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case TypeInt:
		n, err := toInt64(v)
		if err != nil {
			return nil, err
		}
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, fmt.Errorf("value %d overflows int", n)
		}
		return int32(n), nil
	case TypeLong:
		return toInt64(v)
	case TypeFloat:
		f, err := toFloat64(v)
		if err != nil {
			return nil, err
		}
		return float32(f), nil
	case TypeDouble:
		return toFloat64(v)
	case TypeString:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case TypeBinary:
		switch b := v.(type) {
		case []byte:
			return b, nil
		case string:
			return []byte(b), nil
		}
	case TypeDate:
		return toDate(v)
	case TypeTimestamp:
		return toTimestampMicros(v)
	}
	return nil, fmt.Errorf("cannot use %T as %s", v, t)
}

func toInt64(v any) (int64, error) {
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int8:
		return int64(n), nil
	case int16:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case uint8:
		return int64(n), nil
	case uint16:
		return int64(n), nil
	case uint32:
		return int64(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("value %d overflows long", n)
		}
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, fmt.Errorf("value %v is not integral", n)
		}
		if n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, fmt.Errorf("value %v overflows long", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	}
	return 0, fmt.Errorf("cannot use %T as integer", v)
}

func toFloat64(v any) (float64, error) {
	switch n := v.(type) {
	case float32:
		return float64(n), nil
	case float64:
		return n, nil
	case json.Number:
		return n.Float64()
	}
	i, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("cannot use %T as floating point", v)
	}
	return float64(i), nil
}

const (
	dateLayout    = "2006-01-02"
	microsPerDay  = int64(24 * time.Hour / time.Microsecond)
	secondsPerDay = int64(24 * 60 * 60)
)

func toDate(v any) (int32, error) {
	switch d := v.(type) {
	case time.Time:
		return int32(floorDiv(d.Unix(), secondsPerDay)), nil
	case string:
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			return 0, err
		}
		return int32(floorDiv(t.Unix(), secondsPerDay)), nil
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("cannot use %T as date", v)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("date %d out of range", n)
	}
	return int32(n), nil
}

func toTimestampMicros(v any) (int64, error) {
	switch ts := v.(type) {
	case time.Time:
		return ts.UnixMicro(), nil
	case string:
		t, err := time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return 0, err
		}
		return t.UnixMicro(), nil
	}
	n, err := toInt64(v)
	if err != nil {
		return 0, fmt.Errorf("cannot use %T as timestamp", v)
	}
	return n, nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
