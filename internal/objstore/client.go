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

// Package objstore provides a small object-storage abstraction used to
// persist data files and manifests to the local filesystem, S3 (and
// S3-compatible stores including GCS interop), or Azure Blob Storage.
package objstore

import (
	"context"
)

// Client provides a unified interface for object operations across providers.
type Client interface {
	// UploadObject uploads a local file to bucket/key.
	UploadObject(ctx context.Context, bucket, key, sourceFilename string) error

	// DownloadObject downloads bucket/key to a new file in tmpdir.
	// Returns the temp filename, its size, and whether the object was not found.
	DownloadObject(ctx context.Context, tmpdir, bucket, key string) (filename string, size int64, notFound bool, err error)

	// DeleteObject deletes bucket/key. Deleting a missing object is not an error.
	DeleteObject(ctx context.Context, bucket, key string) error
}

// Profile holds per-table storage settings. Which fields apply depends on
// the location scheme.
type Profile struct {
	Region         string `json:"region,omitempty" yaml:"region,omitempty"`
	Endpoint       string `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Role           string `json:"role,omitempty" yaml:"role,omitempty"`
	UsePathStyle   bool   `json:"use_path_style,omitempty" yaml:"use_path_style,omitempty"`
	InsecureTLS    bool   `json:"insecure_tls,omitempty" yaml:"insecure_tls,omitempty"`
	StorageAccount string `json:"storage_account,omitempty" yaml:"storage_account,omitempty"`
}

// Provider creates clients able to reach a location.
type Provider interface {
	ClientFor(ctx context.Context, loc Location, profile Profile) (Client, error)
}
