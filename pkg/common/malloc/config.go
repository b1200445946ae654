// Copyright 2024 Matrix Origin
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

package malloc

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/matrixorigin/simplevector/pkg/common/moerr"
	"github.com/matrixorigin/simplevector/pkg/logutil"
)

const (
	KindGo    = "go"
	KindClass = "class"
	KindMmap  = "mmap"
)

type Config struct {
	// Kind selects the base allocator: "go", "class" or "mmap".
	Kind string `toml:"kind"`
	// ClassMaxBufferSize bounds the bytes kept in class allocator pools.
	ClassMaxBufferSize uint64 `toml:"class-max-buffer-size"`
	// Limit caps the bytes in use, 0 means unlimited.
	Limit uint64 `toml:"limit"`
	// EnableMetrics reports allocations to prometheus.
	EnableMetrics bool `toml:"enable-metrics"`
}

func (c *Config) Validate() error {
	switch c.Kind {
	case "":
		c.Kind = KindClass
	case KindGo, KindClass, KindMmap:
	default:
		return moerr.NewBadConfigNoCtx("unknown allocator kind %q", c.Kind)
	}
	if c.ClassMaxBufferSize == 0 {
		c.ClassMaxBufferSize = 64 * MB
	}
	return nil
}

// NewAllocator builds the allocator chain described by config:
// base allocator, then the optional limit, then the optional metrics.
func NewAllocator(config Config, reg prometheus.Registerer) (Allocator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var ret Allocator
	switch config.Kind {
	case KindGo:
		ret = NewGoAllocator()
	case KindClass:
		ret = NewClassAllocator(config.ClassMaxBufferSize)
	case KindMmap:
		ret = NewMmapAllocator()
	}

	if config.Limit > 0 {
		ret = NewLimitAllocator(ret, config.Limit)
	}

	if config.EnableMetrics {
		metrics, err := NewAllocatorMetrics(reg, config.Kind)
		if err != nil {
			return nil, err
		}
		ret = metrics.Wrap(ret)
	}

	logutil.Info("allocator created",
		zap.String("kind", config.Kind),
		zap.Uint64("limit", config.Limit),
		zap.Bool("metrics", config.EnableMetrics),
	)
	return ret, nil
}

var defaultAllocator Allocator = NewGoAllocator()

// GetDefault returns the process wide allocator used when none is given.
func GetDefault() Allocator {
	return defaultAllocator
}

// SetDefault replaces the process wide allocator and returns the previous
// one. It must be called before any allocation depends on the default.
func SetDefault(a Allocator) Allocator {
	prev := defaultAllocator
	defaultAllocator = a
	return prev
}
