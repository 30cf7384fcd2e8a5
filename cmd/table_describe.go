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

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/lakesink/config"
	"github.com/cardinalhq/lakesink/internal/objstore"
	"github.com/cardinalhq/lakesink/internal/table"
)

func init() {
	cmd := &cobra.Command{
		Use:   "table-describe",
		Short: "Print the schema, partition spec and location of a table",
		RunE: func(c *cobra.Command, _ []string) error {
			name, err := c.Flags().GetString("table")
			if err != nil {
				return fmt.Errorf("failed to get table flag: %w", err)
			}
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			return runTableDescribe(c.Context(), cfg, objstore.NewCloudProvider("lakesink"), name, c.OutOrStdout())
		},
	}

	rootCmd.AddCommand(cmd)

	cmd.Flags().String("table", "", "Table as namespace.name")
	if err := cmd.MarkFlagRequired("table"); err != nil {
		panic(fmt.Errorf("failed to mark table flag as required: %w", err))
	}
}

func runTableDescribe(ctx context.Context, cfg *config.Config, provider objstore.Provider, name string, out io.Writer) error {
	ident, err := table.ParseIdentifier(name)
	if err != nil {
		return err
	}
	cat, closeCatalog, err := openCatalog(ctx, cfg.Catalog, provider)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer closeCatalog()

	tbl, err := cat.LoadTable(ctx, ident)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintf(out, "table:    %s\nlocation: %s\nschema:\n", tbl.Ident, tbl.Location)
	for _, f := range tbl.Schema.Fields() {
		req := "optional"
		if f.Required {
			req = "required"
		}
		_, _ = fmt.Fprintf(out, "  %d\t%s\t%s\t%s\n", f.ID, f.Name, f.Type, req)
	}
	if tbl.Spec.IsUnpartitioned() {
		_, _ = fmt.Fprintln(out, "partition spec: unpartitioned")
		return nil
	}
	_, _ = fmt.Fprintf(out, "partition spec %d:\n", tbl.Spec.ID())
	for _, pf := range tbl.Spec.Fields() {
		_, _ = fmt.Fprintf(out, "  %s\t%s(%s)\n", pf.Name, pf.Transform, pf.SourceName)
	}
	return nil
}
