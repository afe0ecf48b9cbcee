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

package memstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiidateam/optimade-go/filter"
	"github.com/aiidateam/optimade-go/storage"
)

const structureType = "data.core.structure.StructureData."

func entity(pk int64, elements ...string) *storage.Entity {
	list := make([]interface{}, len(elements))
	for i, e := range elements {
		list[i] = e
	}
	return &storage.Entity{
		PK:       pk,
		UUID:     "uuid-" + string(rune('a'+pk)),
		NodeType: structureType,
		CTime:    time.Date(2026, 1, int(pk), 0, 0, 0, 0, time.UTC),
		MTime:    time.Date(2026, 2, int(pk), 0, 0, 0, 0, time.UTC),
		Extras: map[string]interface{}{
			"optimade": map[string]interface{}{
				"elements":  list,
				"nelements": int64(len(list)),
			},
		},
	}
}

func testStore() *Store {
	s := New()
	s.Put(entity(1, "H", "O"))
	s.Put(entity(2, "H"))
	s.Put(entity(3, "Si", "O"))
	s.Put(&storage.Entity{PK: 4, UUID: "uuid-dict", NodeType: "data.core.dict.Dict."})
	return s
}

func TestQueryFilters(t *testing.T) {
	ctx := context.Background()
	s := testStore()
	tests := []struct {
		name string
		f    filter.Filter
		exp  []interface{}
	}{
		{"eq", filter.Filter{"extras.optimade.nelements": filter.Filter{"==": int64(2)}},
			[]interface{}{int64(1), int64(3)}},
		{"neq", filter.Filter{"extras.optimade.nelements": filter.Filter{"!==": int64(2)}},
			[]interface{}{int64(2)}},
		{"lt", filter.Filter{"extras.optimade.nelements": filter.Filter{"<": int64(2)}},
			[]interface{}{int64(2)}},
		{"contains", filter.Filter{"extras.optimade.elements": filter.Filter{"contains": []interface{}{"H"}}},
			[]interface{}{int64(1), int64(2)}},
		{"contains all", filter.Filter{"extras.optimade.elements": filter.Filter{"contains": []interface{}{"H", "O"}}},
			[]interface{}{int64(1)}},
		{"has any", filter.Filter{"extras.optimade.elements": filter.Filter{"or": []interface{}{
			filter.Filter{"contains": []interface{}{"Si"}},
			filter.Filter{"contains": []interface{}{"He"}},
		}}}, []interface{}{int64(3)}},
		{"like", filter.Filter{"uuid": filter.Filter{"like": "uuid-_"}},
			[]interface{}{int64(1), int64(2), int64(3)}},
		{"of_length", filter.Filter{"extras.optimade.elements": filter.Filter{"of_length": int64(1)}},
			[]interface{}{int64(2)}},
		{"length <=", filter.Filter{"extras.optimade.elements": filter.Filter{"or": []interface{}{
			filter.Filter{"shorter": int64(2)},
			filter.Filter{"of_length": int64(2)},
		}}}, []interface{}{int64(1), int64(2), int64(3)}},
		{"known", filter.Filter{"extras.optimade.nelements": filter.Filter{"!==": nil}},
			[]interface{}{int64(1), int64(2), int64(3)}},
		{"not", filter.Filter{"!and": []interface{}{
			filter.Filter{"extras.optimade.elements": filter.Filter{"contains": []interface{}{"H"}}},
		}}, []interface{}{int64(3)}},
		{"and", filter.Filter{"and": []interface{}{
			filter.Filter{"extras.optimade.elements": filter.Filter{"contains": []interface{}{"O"}}},
			filter.Filter{"extras.optimade.elements": filter.Filter{"contains": []interface{}{"Si"}}},
		}}, []interface{}{int64(3)}},
		{"has_key", filter.Filter{"extras.optimade": filter.Filter{"has_key": "nelements"}},
			[]interface{}{int64(1), int64(2), int64(3)}},
		{"missing key", filter.Filter{"extras.optimade": filter.Filter{"!has_key": "chemical_formula_reduced"}},
			[]interface{}{int64(1), int64(2), int64(3)}},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rows, err := s.Query().
				WithType(structureType).
				WithFilter(test.f).
				Project([]string{"id"}).
				Rows(ctx)
			require.NoError(t, err)
			var got []interface{}
			for _, row := range rows {
				got = append(got, row[0])
			}
			assert.Equal(t, test.exp, got)
		})
	}
}

func TestQueryTypeDiscriminator(t *testing.T) {
	ctx := context.Background()
	s := testStore()
	n, err := s.Query().WithType(structureType).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	n, err = s.Query().Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestQueryCountIgnoresLimitOffset(t *testing.T) {
	ctx := context.Background()
	s := testStore()
	n, err := s.Query().WithType(structureType).Limit(1).Offset(2).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestQueryLimitOffsetOrder(t *testing.T) {
	ctx := context.Background()
	s := testStore()
	rows, err := s.Query().
		WithType(structureType).
		OrderBy([]storage.OrderSpec{{
			Field: "extras.optimade.nelements",
			Desc:  true,
			Cast:  storage.CastInt,
		}, {
			Field: "id",
			Cast:  storage.CastInt,
		}}).
		Project([]string{"id"}).
		Limit(2).
		Offset(1).
		Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, int64(3), rows[0][0])
	assert.Equal(t, int64(2), rows[1][0])
}

func TestExtrasRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := testStore()
	ns, err := s.GetExtras(ctx, 1, "optimade")
	require.NoError(t, err)
	assert.Equal(t, int64(2), ns["nelements"])

	ns["nsites"] = int64(5)
	require.NoError(t, s.SetExtras(ctx, 1, "optimade", ns))
	back, err := s.GetExtras(ctx, 1, "optimade")
	require.NoError(t, err)
	assert.Equal(t, int64(5), back["nsites"])

	// Absent namespaces read as nil, not an error.
	ns, err = s.GetExtras(ctx, 4, "optimade")
	require.NoError(t, err)
	assert.Nil(t, ns)

	require.NoError(t, s.DeleteExtras(ctx, 1, "optimade"))
	ns, err = s.GetExtras(ctx, 1, "optimade")
	require.NoError(t, err)
	assert.Nil(t, ns)
}

func TestGetNotFound(t *testing.T) {
	ctx := context.Background()
	s := testStore()
	_, err := s.Get(ctx, 99)
	require.Error(t, err)
	assert.True(t, storage.IsNotFound(err))
}

func TestSaveLoad(t *testing.T) {
	ctx := context.Background()
	s := testStore()
	path := filepath.Join(t.TempDir(), "entities.json")
	require.NoError(t, s.SaveTo(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.Len())

	// Numeric extras come back as float64 after the JSON round trip;
	// filters with int64 operands must still match.
	rows, err := loaded.Query().
		WithType(structureType).
		WithFilter(filter.Filter{"extras.optimade.nelements": filter.Filter{"==": int64(2)}}).
		Project([]string{"id", "uuid"}).
		Rows(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "uuid-b", rows[0][1])
}
