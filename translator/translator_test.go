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

package translator

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiidateam/optimade-go/mapper"
	"github.com/aiidateam/optimade-go/storage"
	"github.com/aiidateam/optimade-go/storage/memstore"
)

// water is a raw structure entity: one O kind and one H kind, three sites.
func water(pk int64) *storage.Entity {
	return &storage.Entity{
		PK:       pk,
		UUID:     "w",
		NodeType: "data.core.structure.StructureData.",
		MTime:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		Attrs: map[string]interface{}{
			"cell": []interface{}{
				[]interface{}{4.0, 0.0, 0.0},
				[]interface{}{0.0, 4.0, 0.0},
				[]interface{}{0.0, 0.0, 4.0},
			},
			"pbc1": true,
			"pbc2": true,
			"pbc3": false,
			"kinds": []interface{}{
				map[string]interface{}{
					"name":    "O",
					"symbols": []interface{}{"O"},
					"weights": []interface{}{1.0},
				},
				map[string]interface{}{
					"name":    "H",
					"symbols": []interface{}{"H"},
					"weights": []interface{}{1.0},
				},
			},
			"sites": []interface{}{
				map[string]interface{}{"kind_name": "O", "position": []interface{}{0.0, 0.0, 0.0}},
				map[string]interface{}{"kind_name": "H", "position": []interface{}{0.7, 0.7, 0.0}},
				map[string]interface{}{"kind_name": "H", "position": []interface{}{-0.7, 0.7, 0.0}},
			},
		},
		Extras: map[string]interface{}{},
	}
}

func setup(t *testing.T) (*memstore.Store, *Translator) {
	t.Helper()
	s := memstore.New()
	s.Put(water(1))
	return s, New(s, mapper.NewStructures("_aiida_"))
}

func TestBuildAttributes(t *testing.T) {
	ctx := context.Background()
	s, tr := setup(t)
	attrs, err := tr.BuildAttributes(ctx, map[string]interface{}{}, 1)
	require.NoError(t, err)

	assert.Equal(t, []interface{}{"H", "O"}, attrs["elements"])
	assert.Equal(t, int64(2), attrs["nelements"])
	assert.Equal(t, []float64{2.0 / 3.0, 1.0 / 3.0}, attrs["elements_ratios"])
	assert.Equal(t, "H2O", attrs["chemical_formula_descriptive"])
	assert.Equal(t, "H2O", attrs["chemical_formula_reduced"])
	assert.Equal(t, "A2B", attrs["chemical_formula_anonymous"])
	assert.Equal(t, []interface{}{int64(1), int64(1), int64(0)}, attrs["dimension_types"])
	assert.Equal(t, int64(2), attrs["nperiodic_dimensions"])
	assert.Equal(t, int64(3), attrs["nsites"])
	assert.Equal(t, []interface{}{"O", "H", "H"}, attrs["species_at_sites"])
	assert.Equal(t, []interface{}{}, attrs["structure_features"])
	// Optional attribute with no derivation method stays absent.
	assert.NotContains(t, attrs, "chemical_formula_hill")

	// Persisted floats are hex strings; the in-memory result is native.
	stored, err := s.GetExtras(ctx, 1, Namespace)
	require.NoError(t, err)
	ratios, ok := stored["elements_ratios"].([]interface{})
	require.True(t, ok)
	assert.True(t, strings.HasPrefix(ratios[0].(string), "0x"))
	assert.Equal(t, [][]float64{{4, 0, 0}, {0, 4, 0}, {0, 0, 4}}, attrs["lattice_vectors"])
}

func TestBuildAttributesIdempotent(t *testing.T) {
	ctx := context.Background()
	s, tr := setup(t)
	_, err := tr.BuildAttributes(ctx, map[string]interface{}{}, 1)
	require.NoError(t, err)

	// Mutate the stored value directly; a second build must return the
	// mutated value, proving nothing was recomputed.
	stored, err := s.GetExtras(ctx, 1, Namespace)
	require.NoError(t, err)
	stored["nelements"] = int64(42)
	require.NoError(t, s.SetExtras(ctx, 1, Namespace, stored))

	stored, err = s.GetExtras(ctx, 1, Namespace)
	require.NoError(t, err)
	attrs, err := tr.BuildAttributes(ctx, stored, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(42), attrs["nelements"])
}

func TestBuildAttributesRequiredDeriverMissing(t *testing.T) {
	ctx := context.Background()
	_, tr := setup(t)
	delete(tr.derivers, "nsites")
	_, err := tr.BuildAttributes(ctx, map[string]interface{}{}, 1)
	require.Error(t, err)
	missing, ok := err.(*MissingDeriverError)
	require.True(t, ok, "expected MissingDeriverError, got %T", err)
	assert.Equal(t, "nsites", missing.Field)
}

func TestBuildAttributesNotFound(t *testing.T) {
	ctx := context.Background()
	_, tr := setup(t)
	_, err := tr.BuildAttributes(ctx, map[string]interface{}{}, 99)
	require.Error(t, err)
	assert.True(t, storage.IsNotFound(err))
}

func TestCalculateMany(t *testing.T) {
	ctx := context.Background()
	s, tr := setup(t)
	s.Put(water(2))
	require.NoError(t, tr.CalculateMany(ctx, []int64{1, 2}, []string{"nsites"}))
	for _, pk := range []int64{1, 2} {
		stored, err := s.GetExtras(ctx, pk, Namespace)
		require.NoError(t, err)
		assert.Contains(t, stored, "nsites")
		assert.Contains(t, stored, "species")
	}
}

func TestRemoveFieldsAndDropNamespace(t *testing.T) {
	ctx := context.Background()
	s, tr := setup(t)
	require.NoError(t, tr.CalculateMany(ctx, []int64{1}, nil))

	require.NoError(t, tr.RemoveFields(ctx, []int64{1}, []string{"nsites", "no_such_field"}))
	stored, err := s.GetExtras(ctx, 1, Namespace)
	require.NoError(t, err)
	assert.NotContains(t, stored, "nsites")
	assert.Contains(t, stored, "nelements")

	require.NoError(t, tr.DropNamespace(ctx, []int64{1}))
	stored, err = s.GetExtras(ctx, 1, Namespace)
	require.NoError(t, err)
	assert.Nil(t, stored)
}
