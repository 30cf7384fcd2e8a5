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

// Package table describes destination tables: their identity, schema,
// partitioning, storage location, and the data files written into them.
package table

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cardinalhq/lakesink/internal/objstore"
)

// Identifier names a table within a catalog. It is comparable and may be
// used as a map key.
type Identifier struct {
	Namespace string
	Name      string
}

// ParseIdentifier parses "namespace.name". The namespace may itself contain
// dots; the name is everything after the last one.
func ParseIdentifier(s string) (Identifier, error) {
	i := strings.LastIndexByte(s, '.')
	if i <= 0 || i == len(s)-1 {
		return Identifier{}, fmt.Errorf("table: invalid identifier %q, want namespace.name", s)
	}
	return Identifier{Namespace: s[:i], Name: s[i+1:]}, nil
}

func (id Identifier) String() string {
	return id.Namespace + "." + id.Name
}

// Table is a resolved table handle. It is read-only once loaded.
type Table struct {
	Ident    Identifier
	Schema   *Schema
	Spec     *PartitionSpec
	Location objstore.Location
	IO       objstore.Client
}

// Validate checks that every part of the handle is present.
func (t *Table) Validate() error {
	var errs []error
	if t.Schema == nil {
		errs = append(errs, errors.New("missing schema"))
	}
	if t.Spec == nil {
		errs = append(errs, errors.New("missing partition spec"))
	}
	if t.Location.Scheme == "" {
		errs = append(errs, errors.New("missing location"))
	}
	if t.IO == nil {
		errs = append(errs, errors.New("missing storage client"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("table %s: %w", t.Ident, errors.Join(errs...))
	}
	return nil
}

// DataLocation returns where data files for key are stored.
func (t *Table) DataLocation(key PartitionKey) objstore.Location {
	return t.Location.Join("data", key.Path())
}

// MetadataLocation returns where manifests are stored.
func (t *Table) MetadataLocation() objstore.Location {
	return t.Location.Join("metadata")
}
