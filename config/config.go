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

// Package config loads lakesink settings from an optional config file and
// LAKESINK_ environment variables.
package config

import (
	"reflect"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config aggregates configuration for the application.
type Config struct {
	Catalog CatalogConfig `mapstructure:"catalog"`
	Writer  WriterConfig  `mapstructure:"writer"`
}

// CatalogConfig selects where table definitions come from. DatabaseURL
// takes precedence over File when both are set.
type CatalogConfig struct {
	File        string        `mapstructure:"file"`
	DatabaseURL string        `mapstructure:"database_url"`
	CacheTTL    time.Duration `mapstructure:"cache_ttl"`
}

type WriterConfig struct {
	// FilePrefix names output files. A fresh one is generated when empty.
	FilePrefix   string        `mapstructure:"file_prefix"`
	MaxFileSize  int64         `mapstructure:"max_file_size"`
	MaxWriters   int           `mapstructure:"max_writers"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RowGroupRows int64         `mapstructure:"row_group_rows"`
	TmpDir       string        `mapstructure:"tmp_dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Catalog: CatalogConfig{
			File:     "catalog.yaml",
			CacheTTL: 5 * time.Minute,
		},
		Writer: WriterConfig{
			MaxFileSize:  512 << 20,
			MaxWriters:   20,
			IdleTimeout:  time.Minute,
			RowGroupRows: 10_000,
		},
	}
}

// Load reads configuration from files and environment variables.
// Environment variables use the prefix "LAKESINK" and the dot character
// in keys is replaced by an underscore. For example, "writer.max_writers"
// becomes "LAKESINK_WRITER_MAX_WRITERS".
func Load() (*Config, error) {
	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigName("lakesink")
	v.AddConfigPath(".")
	v.SetEnvPrefix("LAKESINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvs(v, cfg)
	_ = v.ReadInConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnvs registers all keys within cfg so that viper will look up
// corresponding environment variables when unmarshalling.
func bindEnvs(v *viper.Viper, cfg any, parts ...string) {
	val := reflect.ValueOf(cfg)
	typ := reflect.TypeOf(cfg)
	if typ.Kind() == reflect.Ptr {
		val = val.Elem()
		typ = typ.Elem()
	}
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		tag := f.Tag.Get("mapstructure")
		if tag == "" {
			tag = strings.ToLower(f.Name)
		}
		key := append(parts, tag)
		if f.Type.Kind() == reflect.Struct {
			bindEnvs(v, val.Field(i).Interface(), key...)
			continue
		}
		_ = v.BindEnv(strings.Join(key, "."))
	}
}
