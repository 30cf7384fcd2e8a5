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
	"context"
	"fmt"

	"github.com/cardinalhq/lakesink/internal/objstore"
	"github.com/cardinalhq/lakesink/internal/table"
)

// TableDefinition is the serialized form of a table, shared by the file and
// database catalogs.
type TableDefinition struct {
	Namespace     string            `yaml:"namespace" json:"namespace"`
	Name          string            `yaml:"name" json:"name"`
	Location      string            `yaml:"location" json:"location"`
	Storage       objstore.Profile  `yaml:"storage,omitempty" json:"storage,omitempty"`
	Schema        []FieldDefinition `yaml:"schema" json:"schema"`
	PartitionSpec SpecDefinition    `yaml:"partition_spec,omitempty" json:"partition_spec,omitempty"`
}

type FieldDefinition struct {
	ID       int    `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	Required bool   `yaml:"required,omitempty" json:"required,omitempty"`
}

type SpecDefinition struct {
	SpecID int                        `yaml:"spec_id" json:"spec_id"`
	Fields []PartitionFieldDefinition `yaml:"fields" json:"fields"`
}

type PartitionFieldDefinition struct {
	Source    string `yaml:"source" json:"source"`
	Transform string `yaml:"transform" json:"transform"`
	Name      string `yaml:"name,omitempty" json:"name,omitempty"`
}

// Ident returns the definition's identifier.
func (d *TableDefinition) Ident() table.Identifier {
	return table.Identifier{Namespace: d.Namespace, Name: d.Name}
}

// metadata validates the definition and builds everything except the
// storage client.
func (d *TableDefinition) metadata() (*table.Schema, *table.PartitionSpec, objstore.Location, error) {
	fields := make([]table.Field, 0, len(d.Schema))
	for _, f := range d.Schema {
		fields = append(fields, table.Field{
			ID:       f.ID,
			Name:     f.Name,
			Type:     table.Type(f.Type),
			Required: f.Required,
		})
	}
	schema, err := table.NewSchema(fields...)
	if err != nil {
		return nil, nil, objstore.Location{}, err
	}

	spec := table.Unpartitioned()
	if len(d.PartitionSpec.Fields) > 0 {
		pfields := make([]table.PartitionField, 0, len(d.PartitionSpec.Fields))
		for _, pf := range d.PartitionSpec.Fields {
			tr, err := table.ParseTransform(pf.Transform)
			if err != nil {
				return nil, nil, objstore.Location{}, err
			}
			pfields = append(pfields, table.PartitionField{SourceName: pf.Source, Transform: tr, Name: pf.Name})
		}
		spec, err = table.NewPartitionSpec(d.PartitionSpec.SpecID, schema, pfields...)
		if err != nil {
			return nil, nil, objstore.Location{}, err
		}
	}

	loc, err := objstore.ParseLocation(d.Location)
	if err != nil {
		return nil, nil, objstore.Location{}, err
	}
	return schema, spec, loc, nil
}

// Validate checks the definition without contacting storage.
func (d *TableDefinition) Validate() error {
	if d.Namespace == "" || d.Name == "" {
		return fmt.Errorf("catalog: table definition needs a namespace and name")
	}
	if _, _, _, err := d.metadata(); err != nil {
		return fmt.Errorf("catalog: table %s: %w", d.Ident(), err)
	}
	return nil
}

// Build resolves the definition into a table handle, obtaining a storage
// client from provider.
func (d *TableDefinition) Build(ctx context.Context, provider objstore.Provider) (*table.Table, error) {
	schema, spec, loc, err := d.metadata()
	if err != nil {
		return nil, fmt.Errorf("catalog: table %s: %w", d.Ident(), err)
	}
	client, err := provider.ClientFor(ctx, loc, d.Storage)
	if err != nil {
		return nil, fmt.Errorf("catalog: table %s: storage client: %w", d.Ident(), err)
	}
	return &table.Table{
		Ident:    d.Ident(),
		Schema:   schema,
		Spec:     spec,
		Location: loc,
		IO:       client,
	}, nil
}
