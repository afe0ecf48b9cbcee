// Copyright 2026 The optimade-go Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
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
)

func Test_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(path, []byte(`{
		"listenAddress": ":9000",
		"provider": {"prefix": "_example_"},
		"limits": {"maxPageLimit": 100},
		"backend": {"path": "entities.json"},
		"tracing": {"collectorUrl": "http://localhost:14268/api/traces"}
	}`), 0644)
	require.NoError(t, err)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9000", cfg.ListenAddress)
	assert.Equal(t, "_example_", cfg.Provider.Prefix)
	// Unset fields pick up defaults, set ones don't.
	assert.Equal(t, 20, cfg.Limits.DefaultPageLimit)
	assert.Equal(t, 100, cfg.Limits.MaxPageLimit)
	assert.Equal(t, "memory", cfg.Backend.Kind)
	assert.Equal(t, "entities.json", cfg.Backend.Path)
	require.NotNil(t, cfg.Tracing)
	assert.Equal(t, "http://localhost:14268/api/traces", cfg.Tracing.CollectorURL)
}

func Test_Load_errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{nope"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func Test_ApplyDefaults(t *testing.T) {
	cfg := &Adapter{}
	cfg.ApplyDefaults()
	assert.Equal(t, ":8081", cfg.ListenAddress)
	assert.Equal(t, "_aiida_", cfg.Provider.Prefix)
	assert.Equal(t, 20, cfg.Limits.DefaultPageLimit)
	assert.Equal(t, 500, cfg.Limits.MaxPageLimit)
	assert.Equal(t, "memory", cfg.Backend.Kind)
	assert.Nil(t, cfg.Tracing)
}
