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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matrixorigin/simplevector/pkg/common/malloc"
	"github.com/matrixorigin/simplevector/pkg/common/moerr"
)

func writeConfig(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "bench.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfigFromFile(t *testing.T) {
	path := writeConfig(t, `
[log]
level = "debug"
format = "json"

[malloc]
kind = "mmap"
limit = 1048576
enable-metrics = true

[workload]
workers = 8
iterations = 1000
insert-ratio = 20
erase-ratio = 10
seed = 7
`)
	cfg, err := LoadConfigFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, malloc.KindMmap, cfg.Malloc.Kind)
	assert.Equal(t, uint64(1<<20), cfg.Malloc.Limit)
	assert.True(t, cfg.Malloc.EnableMetrics)
	assert.Equal(t, 8, cfg.Workload.Workers)
	assert.Equal(t, 1000, cfg.Workload.Iterations)
	assert.Equal(t, 20, cfg.Workload.InsertRatio)
	assert.Equal(t, 10, cfg.Workload.EraseRatio)
	assert.Equal(t, int64(7), cfg.Workload.Seed)
	assert.Equal(t, defaultMaxSize, cfg.Workload.MaxSize)
	assert.Equal(t, defaultPoolSize, cfg.Workload.PoolSize)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfigFromFile(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, malloc.KindClass, cfg.Malloc.Kind)
	assert.Equal(t, uint64(64*malloc.MB), cfg.Malloc.ClassMaxBufferSize)
	assert.Equal(t, defaultWorkers, cfg.Workload.Workers)
	assert.Equal(t, defaultIterations, cfg.Workload.Iterations)
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "syntax", content: "[malloc\nkind = 1"},
		{name: "kind", content: "[malloc]\nkind = \"jemalloc\""},
		{name: "negative", content: "[workload]\nworkers = -1"},
		{name: "ratio", content: "[workload]\ninsert-ratio = 60\nerase-ratio = 40"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfigFromFile(writeConfig(t, tt.content))
			require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig), "%v", err)
		})
	}

	_, err := LoadConfigFromFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.True(t, moerr.IsMoErrCode(err, moerr.ErrBadConfig))
}
