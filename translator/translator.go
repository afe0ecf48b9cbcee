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

// Package translator computes derived OPTIMADE attributes from raw entity
// data and memoizes them into each entity's extras namespace. Derivation is
// dispatched through a static table from attribute name to derivation
// function; a required attribute without an entry is a hard error, an
// optional one is skipped with a warning.
package translator

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/aiidateam/optimade-go/mapper"
	"github.com/aiidateam/optimade-go/storage"
	"github.com/aiidateam/optimade-go/util/hexfloat"
)

// Namespace is the extras key the computed attributes live under;
// mapper.ExtrasPrefix is the dotted-path form of the same location.
const Namespace = "optimade"

// Deriver computes one attribute from a raw entity.
type Deriver func(e *storage.Entity) (interface{}, error)

// MissingDeriverError reports a required attribute with no derivation
// function. The API layer maps it to 501 Not Implemented; the bulk tooling
// treats it as fatal.
type MissingDeriverError struct {
	Field string
}

func (e *MissingDeriverError) Error() string {
	return fmt.Sprintf("no derivation method for required attribute %s", e.Field)
}

// Translator derives and persists computed attributes for one collection.
type Translator struct {
	store    storage.Store
	mapper   *mapper.Structures
	derivers map[string]Deriver
}

// New returns a translator over the structures derivation table.
func New(store storage.Store, m *mapper.Structures) *Translator {
	derivers := make(map[string]Deriver, len(structureDerivers))
	for name, fn := range structureDerivers {
		derivers[name] = fn
	}
	return &Translator{store: store, mapper: m, derivers: derivers}
}

// BuildAttributes fills in every derivable attribute missing from
// retrieved (the entity's current computed-attribute cache) and persists
// the merged set back in a single write. Attributes already present are
// authoritative and never recomputed. The returned mapping holds native
// values (hex-stored floats decoded).
func (t *Translator) BuildAttributes(ctx context.Context, retrieved map[string]interface{}, pk int64) (map[string]interface{}, error) {
	stored := make(map[string]interface{}, len(retrieved))
	native := make(map[string]interface{}, len(retrieved))
	for k, v := range retrieved {
		stored[k] = v
		decoded, err := t.decode(k, v)
		if err != nil {
			return nil, fmt.Errorf("entity %d: %v", pk, err)
		}
		native[k] = decoded
	}

	var entity *storage.Entity
	changed := false
	for _, field := range t.mapper.AllFields() {
		if !t.mapper.IsDerived(field) {
			continue
		}
		if _, ok := stored[field]; ok {
			continue
		}
		attr, _ := t.mapper.Attr(field)
		derive, ok := t.derivers[field]
		if !ok {
			if attr.Required {
				return nil, &MissingDeriverError{Field: field}
			}
			log.WithFields(log.Fields{"attribute": field, "pk": pk}).
				Warn("No derivation method for optional attribute, omitting")
			continue
		}
		if entity == nil {
			var err error
			entity, err = t.store.Get(ctx, pk)
			if err != nil {
				return nil, err
			}
		}
		value, err := derive(entity)
		if err != nil {
			return nil, fmt.Errorf("deriving %s for entity %d: %v", field, pk, err)
		}
		native[field] = value
		if attr.Hex {
			value = hexfloat.Encode(value)
		}
		stored[field] = value
		changed = true
	}

	if changed {
		// One write for the whole merged namespace so a partially-computed
		// cache can never look complete to a later presence check.
		if err := t.store.SetExtras(ctx, pk, Namespace, stored); err != nil {
			return nil, fmt.Errorf("persisting attributes of entity %d: %v", pk, err)
		}
	}
	return native, nil
}

// CalculateMany runs BuildAttributes over a caller-supplied set of entity
// PKs, typically those previously discovered to be missing one of fields.
// The fields argument is advisory (logged); derivation always fills every
// missing derivable attribute so the per-entity cache stays complete.
func (t *Translator) CalculateMany(ctx context.Context, pks []int64, fields []string) error {
	if len(pks) == 0 {
		return nil
	}
	log.WithFields(log.Fields{
		"entities": len(pks),
		"fields":   fields,
	}).Info("Calculating missing OPTIMADE attributes")
	for _, pk := range pks {
		retrieved, err := t.store.GetExtras(ctx, pk, Namespace)
		if err != nil {
			return err
		}
		if retrieved == nil {
			retrieved = map[string]interface{}{}
		}
		if _, err := t.BuildAttributes(ctx, retrieved, pk); err != nil {
			return err
		}
	}
	return nil
}

// RemoveFields deletes the named attributes from every entity's computed
// cache. Used by the maintenance tooling; absent fields are skipped.
func (t *Translator) RemoveFields(ctx context.Context, pks []int64, fields []string) error {
	for _, pk := range pks {
		retrieved, err := t.store.GetExtras(ctx, pk, Namespace)
		if err != nil {
			return err
		}
		if retrieved == nil {
			continue
		}
		changed := false
		for _, f := range fields {
			if _, ok := retrieved[f]; ok {
				delete(retrieved, f)
				changed = true
			}
		}
		if changed {
			if err := t.store.SetExtras(ctx, pk, Namespace, retrieved); err != nil {
				return err
			}
		}
	}
	return nil
}

// DropNamespace removes the whole computed-attribute namespace for the
// given entities. The next query or init run recomputes from scratch.
func (t *Translator) DropNamespace(ctx context.Context, pks []int64) error {
	for _, pk := range pks {
		if err := t.store.DeleteExtras(ctx, pk, Namespace); err != nil {
			return err
		}
	}
	return nil
}

func (t *Translator) decode(field string, v interface{}) (interface{}, error) {
	attr, ok := t.mapper.Attr(field)
	if !ok || !attr.Hex || v == nil {
		return v, nil
	}
	decoded, err := hexfloat.Decode(v)
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %v", field, err)
	}
	return decoded, nil
}
