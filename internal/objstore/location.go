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
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Supported location schemes.
const (
	SchemeFile  = "file"
	SchemeS3    = "s3"
	SchemeGCS   = "gs"
	SchemeAzure = "az"
)

// Location is a parsed storage URI such as s3://bucket/warehouse/db/table.
// For file locations Bucket is empty and Prefix is the absolute path
// without its leading slash.
type Location struct {
	Scheme string
	Bucket string
	Prefix string
}

// ParseLocation parses a storage URI. The prefix is cleaned and never has
// leading or trailing slashes.
func ParseLocation(raw string) (Location, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return Location{}, fmt.Errorf("objstore: parse location %q: %w", raw, err)
	}

	switch u.Scheme {
	case SchemeFile:
		p := cleanPrefix(u.Host + "/" + u.Path)
		if p == "" {
			return Location{}, fmt.Errorf("objstore: file location %q has no path", raw)
		}
		return Location{Scheme: SchemeFile, Prefix: p}, nil
	case SchemeS3, SchemeGCS, SchemeAzure:
		if u.Host == "" {
			return Location{}, fmt.Errorf("objstore: location %q has no bucket", raw)
		}
		return Location{Scheme: u.Scheme, Bucket: u.Host, Prefix: cleanPrefix(u.Path)}, nil
	case "":
		return Location{}, fmt.Errorf("objstore: location %q has no scheme", raw)
	default:
		return Location{}, fmt.Errorf("objstore: unsupported location scheme %q", u.Scheme)
	}
}

// MustParseLocation is like ParseLocation but panics on error.
func MustParseLocation(raw string) Location {
	loc, err := ParseLocation(raw)
	if err != nil {
		panic(err)
	}
	return loc
}

func cleanPrefix(p string) string {
	p = path.Clean("/" + p)
	return strings.Trim(p, "/")
}

// Join returns a new location with parts appended to the prefix.
func (l Location) Join(parts ...string) Location {
	return Location{Scheme: l.Scheme, Bucket: l.Bucket, Prefix: l.Key(parts...)}
}

// Key returns the object key for parts beneath the prefix.
func (l Location) Key(parts ...string) string {
	all := make([]string, 0, len(parts)+1)
	if l.Prefix != "" {
		all = append(all, l.Prefix)
	}
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			all = append(all, p)
		}
	}
	return strings.Join(all, "/")
}

func (l Location) String() string {
	if l.Scheme == SchemeFile {
		return "file:///" + l.Prefix
	}
	if l.Prefix == "" {
		return l.Scheme + "://" + l.Bucket
	}
	return l.Scheme + "://" + l.Bucket + "/" + l.Prefix
}
