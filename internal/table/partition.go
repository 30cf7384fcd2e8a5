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
	"cmp"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	mapset "github.com/deckarep/golang-set/v2"
)

// TransformKind names a partition transform.
type TransformKind string

const (
	TransformIdentity TransformKind = "identity"
	TransformBucket   TransformKind = "bucket"
	TransformTruncate TransformKind = "truncate"
	TransformYear     TransformKind = "year"
	TransformMonth    TransformKind = "month"
	TransformDay      TransformKind = "day"
	TransformHour     TransformKind = "hour"
	TransformVoid     TransformKind = "void"
)

// NullPartitionValue is the path value used when a source column is null.
// It is written unescaped; url.PathEscape always escapes '%', so no
// non-null value can produce it.
const NullPartitionValue = "%null"

// Transform derives a partition value from a source column. Param is the
// bucket count or truncation width and is zero for the other kinds.
type Transform struct {
	Kind  TransformKind
	Param int
}

// ParseTransform parses "identity", "bucket[16]", "truncate[4]", "day", etc.
func ParseTransform(s string) (Transform, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	name, arg, hasArg := strings.Cut(s, "[")
	kind := TransformKind(name)

	switch kind {
	case TransformBucket, TransformTruncate:
		if !hasArg || !strings.HasSuffix(arg, "]") {
			return Transform{}, fmt.Errorf("table: transform %q needs a parameter, like %s[16]", s, kind)
		}
		n, err := strconv.Atoi(strings.TrimSuffix(arg, "]"))
		if err != nil || n <= 0 {
			return Transform{}, fmt.Errorf("table: transform %q has invalid parameter", s)
		}
		return Transform{Kind: kind, Param: n}, nil
	case TransformIdentity, TransformYear, TransformMonth, TransformDay, TransformHour, TransformVoid:
		if hasArg {
			return Transform{}, fmt.Errorf("table: transform %q takes no parameter", s)
		}
		return Transform{Kind: kind}, nil
	}
	return Transform{}, fmt.Errorf("table: unknown transform %q", s)
}

func (t Transform) String() string {
	if t.Param > 0 {
		return fmt.Sprintf("%s[%d]", t.Kind, t.Param)
	}
	return string(t.Kind)
}

func (t Transform) appliesTo(typ Type) bool {
	switch t.Kind {
	case TransformIdentity, TransformVoid:
		return true
	case TransformBucket:
		return typ != TypeBoolean && typ != TypeFloat && typ != TypeDouble
	case TransformTruncate:
		return typ == TypeInt || typ == TypeLong || typ == TypeString || typ == TypeBinary
	case TransformYear, TransformMonth, TransformDay:
		return typ == TypeDate || typ == TypeTimestamp
	case TransformHour:
		return typ == TypeTimestamp
	}
	return false
}

func (t Transform) nameSuffix() string {
	switch t.Kind {
	case TransformTruncate:
		return "trunc"
	case TransformVoid:
		return "null"
	}
	return string(t.Kind)
}

// apply returns the human-readable partition value of v, which must
// already be conformed to typ. v is never nil.
func (t Transform) apply(typ Type, v any) string {
	switch t.Kind {
	case TransformIdentity:
		return formatValue(typ, v)
	case TransformBucket:
		return strconv.FormatUint(bucketHash(typ, v)%uint64(t.Param), 10)
	case TransformTruncate:
		return truncateValue(typ, v, t.Param)
	case TransformYear, TransformMonth, TransformDay, TransformHour:
		ts := time.UnixMicro(timeMicros(typ, v)).UTC()
		switch t.Kind {
		case TransformYear:
			return fmt.Sprintf("%04d", ts.Year())
		case TransformMonth:
			return fmt.Sprintf("%04d-%02d", ts.Year(), int(ts.Month()))
		case TransformDay:
			return ts.Format(dateLayout)
		default:
			return ts.Format("2006-01-02-15")
		}
	}
	return NullPartitionValue
}

func formatValue(typ Type, v any) string {
	switch typ {
	case TypeDate:
		return time.UnixMicro(timeMicros(typ, v)).UTC().Format(dateLayout)
	case TypeTimestamp:
		return time.UnixMicro(v.(int64)).UTC().Format("2006-01-02T15:04:05.000000")
	case TypeFloat:
		return strconv.FormatFloat(float64(v.(float32)), 'g', -1, 32)
	case TypeDouble:
		return strconv.FormatFloat(v.(float64), 'g', -1, 64)
	case TypeBinary:
		return base64.StdEncoding.EncodeToString(v.([]byte))
	}
	return fmt.Sprint(v)
}

func timeMicros(typ Type, v any) int64 {
	if typ == TypeDate {
		return int64(v.(int32)) * microsPerDay
	}
	return v.(int64)
}

// bucketHash hashes integers, dates and timestamps by their 8-byte
// little-endian int64 form so int and long columns bucket identically.
func bucketHash(typ Type, v any) uint64 {
	var buf [8]byte
	switch typ {
	case TypeInt, TypeDate:
		binary.LittleEndian.PutUint64(buf[:], uint64(int64(v.(int32))))
	case TypeLong, TypeTimestamp:
		binary.LittleEndian.PutUint64(buf[:], uint64(v.(int64)))
	case TypeString:
		return xxhash.Sum64String(v.(string))
	case TypeBinary:
		return xxhash.Sum64(v.([]byte))
	}
	return xxhash.Sum64(buf[:])
}

func truncateValue(typ Type, v any, width int) string {
	w := int64(width)
	switch typ {
	case TypeInt:
		n := int64(v.(int32))
		return strconv.FormatInt(n-floorMod(n, w), 10)
	case TypeLong:
		n := v.(int64)
		return strconv.FormatInt(n-floorMod(n, w), 10)
	case TypeString:
		r := []rune(v.(string))
		if len(r) > width {
			r = r[:width]
		}
		return string(r)
	case TypeBinary:
		b := v.([]byte)
		if len(b) > width {
			b = b[:width]
		}
		return base64.StdEncoding.EncodeToString(b)
	}
	return NullPartitionValue
}

func floorMod(a, b int64) int64 {
	return ((a % b) + b) % b
}

// PartitionField maps a source column through a transform.
type PartitionField struct {
	SourceName string
	Transform  Transform
	Name       string
}

// PartitionSpec describes how records are split into partitions.
type PartitionSpec struct {
	id          int
	fields      []PartitionField
	sourceTypes []Type
}

var unpartitioned = &PartitionSpec{}

// Unpartitioned returns the spec with no partition fields. Every record
// maps to the same empty key.
func Unpartitioned() *PartitionSpec {
	return unpartitioned
}

// NewPartitionSpec validates fields against schema. Fields without a name
// are named after their source column and transform (for example ts_day).
func NewPartitionSpec(id int, schema *Schema, fields ...PartitionField) (*PartitionSpec, error) {
	spec := &PartitionSpec{id: id}
	names := mapset.NewThreadUnsafeSet[string]()
	for _, f := range fields {
		src, ok := schema.Field(f.SourceName)
		if !ok {
			return nil, fmt.Errorf("table: partition source column %q not in schema", f.SourceName)
		}
		if !f.Transform.appliesTo(src.Type) {
			return nil, fmt.Errorf("table: transform %s cannot be applied to %s column %q", f.Transform, src.Type, f.SourceName)
		}
		if f.Name == "" {
			f.Name = f.SourceName
			if f.Transform.Kind != TransformIdentity {
				f.Name += "_" + f.Transform.nameSuffix()
			}
		}
		if strings.ContainsAny(f.Name, "/=") {
			return nil, fmt.Errorf("table: partition field name %q may not contain '/' or '='", f.Name)
		}
		if !names.Add(f.Name) {
			return nil, fmt.Errorf("table: duplicate partition field name %q", f.Name)
		}
		spec.fields = append(spec.fields, f)
		spec.sourceTypes = append(spec.sourceTypes, src.Type)
	}
	return spec, nil
}

func (s *PartitionSpec) ID() int {
	return s.id
}

func (s *PartitionSpec) Fields() []PartitionField {
	return append([]PartitionField(nil), s.fields...)
}

func (s *PartitionSpec) IsUnpartitioned() bool {
	return len(s.fields) == 0
}

// Key computes the partition key of a conformed record.
func (s *PartitionSpec) Key(rec Record) PartitionKey {
	if len(s.fields) == 0 {
		return PartitionKey{specID: s.id}
	}
	var b strings.Builder
	for i, f := range s.fields {
		if i > 0 {
			b.WriteByte('/')
		}
		value := NullPartitionValue
		if v, ok := rec[f.SourceName]; ok && v != nil && f.Transform.Kind != TransformVoid {
			value = url.PathEscape(f.Transform.apply(s.sourceTypes[i], v))
		}
		b.WriteString(f.Name)
		b.WriteByte('=')
		b.WriteString(value)
	}
	return PartitionKey{specID: s.id, path: b.String()}
}

// PartitionKey identifies one partition of a table. Keys are plain values:
// two keys built from equal partition tuples under the same spec compare
// equal with == and may be used directly as map keys.
type PartitionKey struct {
	specID int
	path   string
}

// Path is the Hive-style path of the key, "name=value/name=value", with
// values path-escaped. It is empty for unpartitioned tables.
func (k PartitionKey) Path() string {
	return k.path
}

func (k PartitionKey) SpecID() int {
	return k.specID
}

func (k PartitionKey) IsUnpartitioned() bool {
	return k.path == ""
}

// Values returns the unescaped partition values by field name. Fields
// whose value is null are left out.
func (k PartitionKey) Values() map[string]string {
	out := map[string]string{}
	if k.path == "" {
		return out
	}
	for _, part := range strings.Split(k.path, "/") {
		name, value, _ := strings.Cut(part, "=")
		if value == NullPartitionValue {
			continue
		}
		if uv, err := url.PathUnescape(value); err == nil {
			value = uv
		}
		out[name] = value
	}
	return out
}

// Hash returns a stable hash of the key, equal for equal keys.
func (k PartitionKey) Hash() uint64 {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(k.specID))
	d := xxhash.New()
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(k.path)
	return d.Sum64()
}

// Compare orders keys by spec id, then path.
func (k PartitionKey) Compare(o PartitionKey) int {
	if c := cmp.Compare(k.specID, o.specID); c != 0 {
		return c
	}
	return strings.Compare(k.path, o.path)
}

func (k PartitionKey) String() string {
	if k.path == "" {
		return "unpartitioned"
	}
	return k.path
}
