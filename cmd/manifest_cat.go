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
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cardinalhq/lakesink/internal/manifest"
	"github.com/cardinalhq/lakesink/internal/objstore"
)

func init() {
	cmd := &cobra.Command{
		Use:   "manifest-cat",
		Short: "Print the entries of a manifest file",
		RunE: func(c *cobra.Command, _ []string) error {
			filename, err := c.Flags().GetString("file")
			if err != nil {
				return fmt.Errorf("failed to get file flag: %w", err)
			}
			return runManifestCat(c.Context(), objstore.NewCloudProvider("lakesink"), filename, c.OutOrStdout())
		},
	}

	rootCmd.AddCommand(cmd)

	cmd.Flags().String("file", "", "Manifest file to read, as a local path or storage URI")
	if err := cmd.MarkFlagRequired("file"); err != nil {
		panic(fmt.Errorf("failed to mark file flag as required: %w", err))
	}
}

func runManifestCat(ctx context.Context, provider objstore.Provider, filename string, out io.Writer) error {
	local := filename
	if strings.Contains(filename, "://") {
		tmpdir, err := os.MkdirTemp("", "lakesink-manifest-cat-")
		if err != nil {
			return err
		}
		defer func() { _ = os.RemoveAll(tmpdir) }()

		local, err = fetchObject(ctx, provider, filename, tmpdir)
		if err != nil {
			return err
		}
	}

	fh, err := os.Open(local)
	if err != nil {
		return fmt.Errorf("failed to open manifest %s: %w", filename, err)
	}
	defer func() { _ = fh.Close() }()
	st, err := fh.Stat()
	if err != nil {
		return err
	}

	entries, err := manifest.Read(fh, st.Size())
	if err != nil {
		return err
	}
	for _, e := range entries {
		_, _ = fmt.Fprintf(out, "%s\t%s\tspec=%d\tpartition=%s\trecords=%d\tbytes=%d\n",
			e.Status, e.FilePath, e.SpecID, e.Partition, e.RecordCount, e.FileSizeBytes)
	}
	return nil
}

func fetchObject(ctx context.Context, provider objstore.Provider, uri, tmpdir string) (string, error) {
	loc, err := objstore.ParseLocation(uri)
	if err != nil {
		return "", err
	}
	client, err := provider.ClientFor(ctx, loc, objstore.Profile{})
	if err != nil {
		return "", err
	}
	name, _, notFound, err := client.DownloadObject(ctx, tmpdir, loc.Bucket, loc.Key())
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", uri, err)
	}
	if notFound {
		return "", fmt.Errorf("%s not found", uri)
	}
	return name, nil
}
