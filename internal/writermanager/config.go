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
	"log/slog"
	"time"
)

const (
	DefaultIdleTimeout = time.Minute
	DefaultMaxFileSize = 512 << 20
)

// Config holds the fixed settings of a Manager.
type Config struct {
	// FilePrefix is embedded in every data file and manifest name.
	FilePrefix string

	// MaxFileSize is the size a writer must exceed before it is rotated. Zero selects
	// DefaultMaxFileSize.
	MaxFileSize int64

	// MaxWriters bounds the number of open writers across all destinations.
	MaxWriters int

	// IdleTimeout is how long a writer may go untouched before it is closed.
	// Zero selects DefaultIdleTimeout.
	IdleTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxFileSize == 0 {
		c.MaxFileSize = DefaultMaxFileSize
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = DefaultIdleTimeout
	}
	return c
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.FilePrefix == "" {
		return &ConfigError{Field: "FilePrefix", Message: "cannot be empty"}
	}
	if c.MaxWriters <= 0 {
		return &ConfigError{Field: "MaxWriters", Message: "must be positive"}
	}
	if c.MaxFileSize < 0 {
		return &ConfigError{Field: "MaxFileSize", Message: "cannot be negative"}
	}
	if c.IdleTimeout < 0 {
		return &ConfigError{Field: "IdleTimeout", Message: "cannot be negative"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "writermanager config: " + e.Field + " " + e.Message
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock replaces time.Now for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithLogger sets the logger used instead of the one carried by the context.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}
