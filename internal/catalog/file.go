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

package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cardinalhq/lakesink/internal/objstore"
	"github.com/cardinalhq/lakesink/internal/table"
)

type fileDocument struct {
	Tables []TableDefinition `yaml:"tables"`
}

// FileCatalog serves table definitions from a YAML document.
type FileCatalog struct {
	defs     map[table.Identifier]*TableDefinition
	provider objstore.Provider
}

var _ Catalog = (*FileCatalog)(nil)

// NewFileCatalog reads the catalog from filename. A filename of the form
// "env:VAR" reads the document from the environment variable VAR instead.
func NewFileCatalog(filename string, provider objstore.Provider) (*FileCatalog, error) {
	if after, ok := strings.CutPrefix(filename, "env:"); ok {
		contents := os.Getenv(after)
		if contents == "" {
			return nil, fmt.Errorf("environment variable %s is not set", after)
		}
		return NewFileCatalogFromContents([]byte(contents), provider)
	}

	contents, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog from file %s: %w", filename, err)
	}
	return NewFileCatalogFromContents(contents, provider)
}

func NewFileCatalogFromContents(contents []byte, provider objstore.Provider) (*FileCatalog, error) {
	var doc fileDocument
	dec := yaml.NewDecoder(bytes.NewReader(contents))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal catalog: %w", err)
	}

	defs := make(map[table.Identifier]*TableDefinition, len(doc.Tables))
	for i := range doc.Tables {
		def := &doc.Tables[i]
		if err := def.Validate(); err != nil {
			return nil, err
		}
		if _, dup := defs[def.Ident()]; dup {
			return nil, fmt.Errorf("catalog: table %s defined twice", def.Ident())
		}
		defs[def.Ident()] = def
	}

	return &FileCatalog{defs: defs, provider: provider}, nil
}

func (c *FileCatalog) LoadTable(ctx context.Context, ident table.Identifier) (*table.Table, error) {
	def, ok := c.defs[ident]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTableNotFound, ident)
	}
	return def.Build(ctx, c.provider)
}

// Tables returns the identifiers of every defined table.
func (c *FileCatalog) Tables() []table.Identifier {
	ids := make([]table.Identifier, 0, len(c.defs))
	for id := range c.defs {
		ids = append(ids, id)
	}
	return ids
}
