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

package objstore

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var (
	tracer = otel.Tracer("github.com/cardinalhq/lakesink/internal/objstore")

	uploadCount    metric.Int64Counter
	uploadBytes    metric.Int64Counter
	downloadErrors metric.Int64Counter
)

func init() {
	meter := otel.Meter("github.com/cardinalhq/lakesink/internal/objstore")

	var err error
	uploadCount, err = meter.Int64Counter(
		"lakesink.objstore.upload.count",
		metric.WithDescription("Number of objects uploaded"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create upload.count counter: %w", err))
	}

	uploadBytes, err = meter.Int64Counter(
		"lakesink.objstore.upload.bytes",
		metric.WithUnit("By"),
		metric.WithDescription("Bytes uploaded to object storage"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create upload.bytes counter: %w", err))
	}

	downloadErrors, err = meter.Int64Counter(
		"lakesink.objstore.download.errors",
		metric.WithDescription("Number of object download errors"),
	)
	if err != nil {
		panic(fmt.Errorf("failed to create download.errors counter: %w", err))
	}
}

func recordUpload(ctx context.Context, scheme, bucket string, size int64) {
	attrs := metric.WithAttributes(
		attribute.String("scheme", scheme),
		attribute.String("bucket", bucket),
	)
	uploadCount.Add(ctx, 1, attrs)
	uploadBytes.Add(ctx, size, attrs)
}

func recordDownloadError(ctx context.Context, scheme, bucket, reason string) {
	downloadErrors.Add(ctx, 1, metric.WithAttributes(
		attribute.String("scheme", scheme),
		attribute.String("bucket", bucket),
		attribute.String("reason", reason),
	))
}
