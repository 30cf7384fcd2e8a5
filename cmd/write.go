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
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/lakesink/config"
	"github.com/cardinalhq/lakesink/internal/catalog"
	"github.com/cardinalhq/lakesink/internal/idgen"
	"github.com/cardinalhq/lakesink/internal/logctx"
	"github.com/cardinalhq/lakesink/internal/manifest"
	"github.com/cardinalhq/lakesink/internal/objstore"
	"github.com/cardinalhq/lakesink/internal/parquetwriter"
	"github.com/cardinalhq/lakesink/internal/table"
	"github.com/cardinalhq/lakesink/internal/writermanager"
)

type writeOptions struct {
	table       string
	input       string
	windowStart int64
	windowEnd   int64
	pane        int64
	timing      string
}

func init() {
	var opts writeOptions
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write JSON lines into a table and print the resulting manifests",
		RunE: func(c *cobra.Command, _ []string) error {
			ctx, doneFx, err := setupTelemetry("lakesink-write")
			if err != nil {
				return fmt.Errorf("failed to setup telemetry: %w", err)
			}
			defer func() {
				if err := doneFx(); err != nil {
					slog.Error("Error shutting down telemetry", slog.Any("error", err))
				}
			}()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			in := c.InOrStdin()
			if opts.input != "-" {
				fh, err := os.Open(opts.input)
				if err != nil {
					return err
				}
				defer func() { _ = fh.Close() }()
				in = fh
			}
			return runWrite(ctx, cfg, objstore.NewCloudProvider("lakesink"), opts, in, c.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&opts.table, "table", "", "Destination table as namespace.name")
	cmd.Flags().StringVar(&opts.input, "input", "-", "JSON lines file to read, or - for stdin")
	cmd.Flags().Int64Var(&opts.windowStart, "window-start", 0, "Window start in epoch milliseconds")
	cmd.Flags().Int64Var(&opts.windowEnd, "window-end", 0, "Window end in epoch milliseconds")
	cmd.Flags().Int64Var(&opts.pane, "pane", 0, "Pane index")
	cmd.Flags().StringVar(&opts.timing, "timing", "", "Pane timing: EARLY, ON_TIME or LATE")
	if err := cmd.MarkFlagRequired("table"); err != nil {
		panic(fmt.Errorf("failed to mark table flag as required: %w", err))
	}

	rootCmd.AddCommand(cmd)
}

func (o writeOptions) destination() (writermanager.Destination, error) {
	ident, err := table.ParseIdentifier(o.table)
	if err != nil {
		return writermanager.Destination{}, err
	}
	if o.windowEnd < o.windowStart {
		return writermanager.Destination{}, fmt.Errorf("window end %d is before start %d", o.windowEnd, o.windowStart)
	}
	timing := writermanager.PaneTiming(o.timing)
	if !slices.Contains([]writermanager.PaneTiming{
		writermanager.TimingUnknown, writermanager.TimingEarly, writermanager.TimingOnTime, writermanager.TimingLate,
	}, timing) {
		return writermanager.Destination{}, fmt.Errorf("unknown pane timing %q", o.timing)
	}
	return writermanager.Destination{
		Table:  ident,
		Window: writermanager.Window{StartMillis: o.windowStart, EndMillis: o.windowEnd},
		Pane:   writermanager.Pane{Index: o.pane, Timing: timing},
	}, nil
}

// runWrite feeds every line of in to a writer manager. Records rejected for
// lack of writer capacity are replayed against a fresh manager once the
// current one is closed, until none remain.
func runWrite(ctx context.Context, cfg *config.Config, provider objstore.Provider, opts writeOptions, in io.Reader, out io.Writer) error {
	dest, err := opts.destination()
	if err != nil {
		return err
	}

	cat, closeCatalog, err := openCatalog(ctx, cfg.Catalog, provider)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer closeCatalog()

	prefix := cfg.Writer.FilePrefix
	if prefix == "" {
		prefix = idgen.NewFilePrefix(time.Now())
	}
	ctx, ll := logctx.With(ctx, slog.String("table", dest.Table.String()), slog.String("filePrefix", prefix))

	dec := json.NewDecoder(in)
	dec.UseNumber()
	next := func() (map[string]any, error) {
		var row map[string]any
		if err := dec.Decode(&row); err != nil {
			return nil, err
		}
		return row, nil
	}

	for round := 1; ; round++ {
		m, err := newWriterManager(cat, cfg.Writer, prefix)
		if err != nil {
			return err
		}

		retry, err := writeRows(ctx, m, dest, next)
		if err != nil {
			return errors.Join(err, m.Abort(ctx))
		}

		start := time.Now()
		if err := m.Close(ctx); err != nil {
			return errors.Join(err, m.Abort(ctx))
		}
		closeDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributeSet(commonAttributes))

		manifests, err := m.ManifestFiles()
		if err != nil {
			return err
		}
		printManifests(out, manifests)
		ll.Info("Finished write round", slog.Int("round", round), slog.Any("stats", m.Stats()), slog.Int("deferred", len(retry)))

		if len(retry) == 0 {
			return nil
		}
		recordsRetried.Add(ctx, int64(len(retry)), metric.WithAttributes(attribute.String("table", dest.Table.String())))
		next = replay(retry)
	}
}

func newWriterManager(cat catalog.Catalog, cfg config.WriterConfig, prefix string) (*writermanager.Manager, error) {
	return writermanager.New(
		cat,
		parquetwriter.NewFactory(cfg.TmpDir, cfg.RowGroupRows),
		manifest.NewAssembler(cfg.TmpDir),
		writermanager.Config{
			FilePrefix:  prefix,
			MaxFileSize: cfg.MaxFileSize,
			MaxWriters:  cfg.MaxWriters,
			IdleTimeout: cfg.IdleTimeout,
		},
	)
}

// writeRows drains next into m and returns the rows m rejected.
func writeRows(ctx context.Context, m *writermanager.Manager, dest writermanager.Destination, next func() (map[string]any, error)) ([]map[string]any, error) {
	var retry []map[string]any
	for line := 1; ; line++ {
		row, err := next()
		if errors.Is(err, io.EOF) {
			return retry, nil
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", line, err)
		}
		ok, err := m.Write(ctx, dest, row)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", line, err)
		}
		if !ok {
			retry = append(retry, row)
			continue
		}
		recordsAccepted.Add(ctx, 1, metric.WithAttributeSet(commonAttributes))
	}
}

func replay(rows []map[string]any) func() (map[string]any, error) {
	i := 0
	return func() (map[string]any, error) {
		if i >= len(rows) {
			return nil, io.EOF
		}
		i++
		return rows[i-1], nil
	}
}

func printManifests(out io.Writer, manifests map[writermanager.Destination][]manifest.File) {
	dests := make([]writermanager.Destination, 0, len(manifests))
	for d := range manifests {
		dests = append(dests, d)
	}
	slices.SortFunc(dests, writermanager.Destination.Compare)
	for _, d := range dests {
		for _, mf := range manifests[d] {
			_, _ = fmt.Fprintf(out, "%s\t%s\tfiles=%d\trows=%d\tbytes=%d\n", d, mf.Path, mf.AddedFiles, mf.AddedRows, mf.Length)
		}
	}
}
