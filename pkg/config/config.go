// Copyright 2021 Matrix Origin
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
	"go.uber.org/zap"

	"github.com/matrixorigin/simplevector/pkg/common/malloc"
	"github.com/matrixorigin/simplevector/pkg/common/moerr"
	"github.com/matrixorigin/simplevector/pkg/logutil"
)

const (
	defaultWorkers    = 4
	defaultIterations = 100000
	defaultMaxSize    = 4096
	defaultPoolSize   = 64
)

// Config is the configuration of vector-bench.
type Config struct {
	Log      logutil.LogConfig `toml:"log"`
	Malloc   malloc.Config     `toml:"malloc"`
	Workload WorkloadConfig    `toml:"workload"`
}

// WorkloadConfig describes the operations each bench worker runs.
type WorkloadConfig struct {
	// Workers is the number of independent workers, each owning its vectors.
	Workers int `toml:"workers"`
	// PoolSize is the size of the goroutine pool the workers run on.
	PoolSize int `toml:"pool-size"`
	// Iterations is the number of operations per worker.
	Iterations int `toml:"iterations"`
	// MaxSize bounds the size of a worker's vector, it is cleared on reaching it.
	MaxSize int `toml:"max-size"`
	// Seed seeds the operation mix, 0 picks the worker index.
	Seed int64 `toml:"seed"`
	// InsertRatio and EraseRatio are the percentages of operations that
	// insert or erase at a random position. The rest push back, and one in
	// a hundred resizes.
	InsertRatio int `toml:"insert-ratio"`
	EraseRatio  int `toml:"erase-ratio"`
}

func (c *WorkloadConfig) Validate() error {
	if c.Workers < 0 || c.PoolSize < 0 || c.Iterations < 0 || c.MaxSize < 0 {
		return moerr.NewBadConfigNoCtx("workload sizes must not be negative")
	}
	if c.InsertRatio < 0 || c.EraseRatio < 0 || c.InsertRatio+c.EraseRatio > 99 {
		return moerr.NewBadConfigNoCtx("invalid workload ratios, insert %d, erase %d",
			c.InsertRatio, c.EraseRatio)
	}
	if c.Workers == 0 {
		c.Workers = defaultWorkers
	}
	if c.PoolSize == 0 {
		c.PoolSize = defaultPoolSize
	}
	if c.Iterations == 0 {
		c.Iterations = defaultIterations
	}
	if c.MaxSize == 0 {
		c.MaxSize = defaultMaxSize
	}
	return nil
}

// Validate fills defaults and checks every section.
func (c *Config) Validate() error {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
	if err := c.Malloc.Validate(); err != nil {
		return err
	}
	return c.Workload.Validate()
}

// LoadConfigFromFile decodes the toml file at path and validates it.
func LoadConfigFromFile(path string) (*Config, error) {
	cfg := &Config{}
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, moerr.NewBadConfigNoCtx("failed to decode %s: %v", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		logutil.Warn("unknown config keys",
			zap.String("file", path),
			zap.Any("keys", undecoded),
		)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
