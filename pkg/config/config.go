// Copyright 2024 The Tabular Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"github.com/BurntSushi/toml"

	"github.com/wilson-anysphere/tabular/pkg/common/taberr"
	"github.com/wilson-anysphere/tabular/pkg/logutil"
)

const (
	DefaultPageSize   = 8192
	DefaultMaxWorkers = 8
)

// Config is the embedded engine configuration, normally parsed from a toml
// file by the hosting application.
type Config struct {
	// PageSize is the fixed row stride of every column page built by this
	// process. Tables loaded from elsewhere keep their own stride.
	PageSize int `toml:"page-size"`

	// MaxWorkers caps the goroutine pool used for parallel predicate
	// evaluation. Zero means DefaultMaxWorkers.
	MaxWorkers int `toml:"max-workers"`

	// CompressPages enables lz4 block compression of raw float pages.
	CompressPages bool `toml:"compress-pages"`

	Log logutil.LogConfig `toml:"log"`
}

func Default() Config {
	return Config{
		PageSize:   DefaultPageSize,
		MaxWorkers: DefaultMaxWorkers,
	}
}

// Load parses a toml config file and applies defaults for absent fields.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, taberr.NewBadConfig("%v", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.PageSize <= 0 {
		return taberr.NewBadConfig("page-size must be positive, got %d", c.PageSize)
	}
	if c.MaxWorkers < 0 {
		return taberr.NewBadConfig("max-workers must not be negative, got %d", c.MaxWorkers)
	}
	if c.MaxWorkers == 0 {
		c.MaxWorkers = DefaultMaxWorkers
	}
	return nil
}
