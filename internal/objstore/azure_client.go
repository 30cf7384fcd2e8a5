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
	"io"
	"os"
	"path/filepath"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/blob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// azureClient implements Client for Azure Blob Storage. Buckets map to
// containers.
type azureClient struct {
	client *azblob.Client
}

var _ Client = (*azureClient)(nil)

func (c *azureClient) UploadObject(ctx context.Context, bucket, key, sourceFilename string) error {
	ctx, span := tracer.Start(ctx, "objstore.azureUploadObject",
		trace.WithAttributes(
			attribute.String("bucket", bucket),
			attribute.String("key", key),
		),
	)
	defer span.End()

	file, err := os.Open(sourceFilename)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", sourceFilename, err)
	}
	defer func() { _ = file.Close() }()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("stat source file: %w", err)
	}

	_, err = c.client.UploadStream(ctx, bucket, key, file, &azblob.UploadStreamOptions{
		Metadata: map[string]*string{
			"writer": to.Ptr("lakesink-go"),
		},
		HTTPHeaders: &blob.HTTPHeaders{
			BlobContentType: to.Ptr(contentTypeFor(key)),
		},
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("upload blob %s/%s: %w", bucket, key, err)
	}

	recordUpload(ctx, SchemeAzure, bucket, stat.Size())
	return nil
}

func (c *azureClient) DownloadObject(ctx context.Context, tmpdir, bucket, key string) (string, int64, bool, error) {
	ctx, span := tracer.Start(ctx, "objstore.azureDownloadObject",
		trace.WithAttributes(
			attribute.String("bucket", bucket),
			attribute.String("key", key),
		),
	)
	defer span.End()

	f, err := os.CreateTemp(tmpdir, "*-"+filepath.Base(key))
	if err != nil {
		return "", 0, false, fmt.Errorf("create temp file: %w", err)
	}
	defer func() { _ = f.Close() }()

	resp, err := c.client.DownloadStream(ctx, bucket, key, nil)
	if err != nil {
		_ = os.Remove(f.Name())
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			recordDownloadError(ctx, SchemeAzure, bucket, "not_found")
			return "", 0, true, nil
		}
		recordDownloadError(ctx, SchemeAzure, bucket, "unknown")
		return "", 0, false, fmt.Errorf("download blob %s/%s: %w", bucket, key, err)
	}
	defer func() { _ = resp.Body.Close() }()

	size, err := io.Copy(f, resp.Body)
	if err != nil {
		_ = os.Remove(f.Name())
		recordDownloadError(ctx, SchemeAzure, bucket, "copy_failed")
		return "", 0, false, fmt.Errorf("copy blob content: %w", err)
	}
	return f.Name(), size, false, nil
}

func (c *azureClient) DeleteObject(ctx context.Context, bucket, key string) error {
	ctx, span := tracer.Start(ctx, "objstore.azureDeleteObject",
		trace.WithAttributes(
			attribute.String("bucket", bucket),
			attribute.String("key", key),
		),
	)
	defer span.End()

	if _, err := c.client.DeleteBlob(ctx, bucket, key, nil); err != nil {
		if bloberror.HasCode(err, bloberror.BlobNotFound) {
			return nil
		}
		return fmt.Errorf("delete blob %s/%s: %w", bucket, key, err)
	}
	return nil
}
