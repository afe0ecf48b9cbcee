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

// Package config contains the configuration for the OPTIMADE adapter. The
// configuration is typically loaded from a JSON file on disk.
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// Adapter describes the configuration for the OPTIMADE API server and the
// maintenance tooling.
type Adapter struct {
	// Address the HTTP API listens on, e.g. ":8081". Ignored by the
	// maintenance CLI.
	ListenAddress string `json:"listenAddress"`

	// Provider-specific settings used for field namespacing.
	Provider Provider `json:"provider"`

	// Page-size limits applied to listing queries.
	Limits Limits `json:"limits"`

	// Where to find the backend entity store.
	Backend Backend `json:"backend"`

	// If non-nil, the configuration for distributed tracing (OpenTracing).
	// If nil, the server will not collect traces.
	Tracing *Tracing `json:"tracing,omitempty"`
}

// Provider holds the database-provider identity settings.
type Provider struct {
	// Prefix is prepended (with underscores) to provider-specific fields in
	// the OPTIMADE API, e.g. "_aiida_". Fields arriving with this prefix are
	// stripped back to their canonical names before aliasing.
	Prefix string `json:"prefix"`
}

// Limits bounds listing page sizes.
type Limits struct {
	// DefaultPageLimit is used when the client doesn't ask for a page size
	// (or asks for an explicit zero, which historically means "default").
	DefaultPageLimit int `json:"defaultPageLimit"`
	// MaxPageLimit is the largest page size a client may request. Requests
	// above it are rejected, not clamped.
	MaxPageLimit int `json:"maxPageLimit"`
}

// Backend locates the entity store.
type Backend struct {
	// Kind selects the storage implementation. Only "memory" is bundled.
	Kind string `json:"kind"`
	// Path is the JSON file the memory backend loads entities from (and
	// writes extras back to).
	Path string `json:"path"`
}

// Tracing configures reporting of OpenTracing traces to Jaeger.
type Tracing struct {
	// CollectorURL accepts jaeger.thrift over HTTP directly from clients,
	// e.g. "http://localhost:14268/api/traces".
	CollectorURL string `json:"collectorUrl"`
}

// Load reads the configuration from the given JSON file and applies defaults
// for unset limit fields.
func Load(path string) (*Adapter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read config file: %v", err)
	}
	cfg := &Adapter{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("unable to parse config file %s: %v", path, err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills in the zero-valued fields that have sensible defaults.
func (cfg *Adapter) ApplyDefaults() {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = ":8081"
	}
	if cfg.Provider.Prefix == "" {
		cfg.Provider.Prefix = "_aiida_"
	}
	if cfg.Limits.DefaultPageLimit == 0 {
		cfg.Limits.DefaultPageLimit = 20
	}
	if cfg.Limits.MaxPageLimit == 0 {
		cfg.Limits.MaxPageLimit = 500
	}
	if cfg.Backend.Kind == "" {
		cfg.Backend.Kind = "memory"
	}
}
