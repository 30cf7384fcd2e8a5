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

package writermanager

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/cardinalhq/lakesink/internal/table"
)

var (
	openWritersGauge metric.Int64UpDownCounter
	writersCreated   metric.Int64Counter
	writersClosed    metric.Int64Counter
	writesRejected   metric.Int64Counter
	manifestsWritten metric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/lakesink/internal/writermanager")

	var err error
	openWritersGauge, err = meter.Int64UpDownCounter(
		"lakesink.writermanager.writers.open",
		metric.WithDescription("Number of data file writers currently open"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create writers.open gauge: %w", err))
	}

	writersCreated, err = meter.Int64Counter(
		"lakesink.writermanager.writers.created",
		metric.WithDescription("Number of data file writers opened"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create writers.created counter: %w", err))
	}

	writersClosed, err = meter.Int64Counter(
		"lakesink.writermanager.writers.closed",
		metric.WithDescription("Number of data file writers closed, by reason"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create writers.closed counter: %w", err))
	}

	writesRejected, err = meter.Int64Counter(
		"lakesink.writermanager.writes.rejected",
		metric.WithDescription("Number of records rejected because the writer limit was reached"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create writes.rejected counter: %w", err))
	}

	manifestsWritten, err = meter.Int64Counter(
		"lakesink.writermanager.manifests.written",
		metric.WithDescription("Number of manifests written"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create manifests.written counter: %w", err))
	}
}

func recordWriterOpened(ctx context.Context) {
	openWritersGauge.Add(ctx, 1)
	writersCreated.Add(ctx, 1)
}

func recordWriterClosed(ctx context.Context, reason EvictReason) {
	openWritersGauge.Add(ctx, -1)
	writersClosed.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", string(reason))))
}

func recordRejected(ctx context.Context, ident table.Identifier) {
	writesRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("table", ident.String())))
}

func recordManifest(ctx context.Context, ident table.Identifier) {
	manifestsWritten.Add(ctx, 1, metric.WithAttributes(attribute.String("table", ident.String())))
}
