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

// Package mapper translates between OPTIMADE canonical property names and
// backend storage paths, and reconstructs OPTIMADE attribute mappings from
// projected backend rows.
package mapper

import (
	"fmt"
	"strings"

	"github.com/aiidateam/optimade-go/util/hexfloat"
)

// ExtrasPrefix is the storage path under which derived attributes are
// memoized in each entity's extras namespace.
const ExtrasPrefix = "extras.optimade."

// Structures is the mapper for the structures collection. Explicitly
// aliased attributes map to native backend columns; everything else is a
// derived attribute routed into the extras namespace.
type Structures struct {
	providerPrefix string
	aliases        map[string]string
	byName         map[string]Attribute
	names          []string
}

// NewStructures builds the structures mapper. providerPrefix is the
// provider-specific field prefix (e.g. "_aiida_"); fields carrying it map
// straight onto native backend columns.
func NewStructures(providerPrefix string) *Structures {
	m := &Structures{
		providerPrefix: providerPrefix,
		aliases: map[string]string{
			"id":            "id",
			"immutable_id":  "uuid",
			"last_modified": "mtime",
		},
		byName: make(map[string]Attribute, len(structureAttributes)),
	}
	for _, a := range structureAttributes {
		m.byName[a.Name] = a
		m.names = append(m.names, a.Name)
	}
	return m
}

// AliasFor maps an OPTIMADE canonical property name to its backend storage
// path. Explicit aliases are returned verbatim; provider-prefixed fields
// have the prefix stripped (they address native columns directly); anything
// else is a derived attribute and is routed into the extras namespace. The
// result is stable for a given configuration and the function never
// touches storage.
func (m *Structures) AliasFor(field string) string {
	if alias, ok := m.aliases[field]; ok {
		return alias
	}
	if strings.HasPrefix(field, m.providerPrefix) {
		return strings.TrimPrefix(field, m.providerPrefix)
	}
	// Already-aliased extras paths pass through unchanged so that
	// re-aliasing is idempotent.
	if strings.HasPrefix(field, ExtrasPrefix) {
		return field
	}
	return ExtrasPrefix + field
}

// Attr looks up the attribute descriptor for a canonical name.
func (m *Structures) Attr(field string) (Attribute, bool) {
	a, ok := m.byName[field]
	return a, ok
}

// AllFields returns every canonical attribute name, in registry order.
func (m *Structures) AllFields() []string {
	out := make([]string, len(m.names))
	copy(out, m.names)
	return out
}

// RequiredFields returns the attributes that must be projected on every
// query regardless of the requested response fields.
func (m *Structures) RequiredFields() []string {
	return []string{"id", "immutable_id", "last_modified"}
}

// IsDerived reports whether the canonical field is computed into the extras
// namespace rather than stored in a native column.
func (m *Structures) IsDerived(field string) bool {
	if _, ok := m.aliases[field]; ok {
		return false
	}
	if strings.HasPrefix(field, m.providerPrefix) {
		return false
	}
	_, known := m.byName[field]
	return known
}

// MapBack reconstructs an OPTIMADE attributes mapping from a projected row.
// fields holds the canonical names in projection order and values the
// corresponding backend values. Hex-stored float attributes are decoded.
func (m *Structures) MapBack(fields []string, values []interface{}) (map[string]interface{}, error) {
	if len(fields) != len(values) {
		return nil, fmt.Errorf("projection mismatch: %d fields, %d values",
			len(fields), len(values))
	}
	attrs := make(map[string]interface{}, len(fields))
	for i, field := range fields {
		v := values[i]
		if a, ok := m.byName[field]; ok && a.Hex && v != nil {
			decoded, err := hexfloat.Decode(v)
			if err != nil {
				return nil, fmt.Errorf("attribute %s: %v", field, err)
			}
			v = decoded
		}
		attrs[field] = v
	}
	return attrs, nil
}
