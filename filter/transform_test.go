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

package filter

import (
	"testing"

	"github.com/aiidateam/optimade-go/filter/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func transformQB(t *testing.T, in string) (Filter, []string, error) {
	t.Helper()
	expr, err := parser.Parse(in)
	require.NoError(t, err, "filter %q should parse", in)
	return Transform(expr, QueryBuilder{}, nil)
}

func TestTransform_QueryBuilder(t *testing.T) {
	tests := []struct {
		in  string
		exp Filter
	}{
		{`a<3`, Filter{"a": Filter{"<": int64(3)}}},
		{`a>=3`, Filter{"a": Filter{">=": int64(3)}}},
		{`a=3`, Filter{"a": Filter{"==": int64(3)}}},
		{`a!=3`, Filter{"a": Filter{"!==": int64(3)}}},
		{`NOT a<3`, Filter{"!and": []interface{}{
			Filter{"a": Filter{"<": int64(3)}},
		}}},
		{`elements HAS "H"`, Filter{"elements": Filter{
			"contains": []interface{}{"H"},
		}}},
		{`elements HAS ALL "H","He"`, Filter{"elements": Filter{
			"contains": []interface{}{"H", "He"},
		}}},
		{`elements HAS ANY "H","He"`, Filter{"elements": Filter{
			"or": []interface{}{
				Filter{"contains": []interface{}{"H"}},
				Filter{"contains": []interface{}{"He"}},
			},
		}}},
		{`x LENGTH 3`, Filter{"x": Filter{"of_length": int64(3)}}},
		{`x LENGTH < 3`, Filter{"x": Filter{"shorter": int64(3)}}},
		{`x LENGTH > 3`, Filter{"x": Filter{"longer": int64(3)}}},
		{`x LENGTH <= 3`, Filter{"x": Filter{"or": []interface{}{
			Filter{"shorter": int64(3)},
			Filter{"of_length": int64(3)},
		}}}},
		{`x LENGTH >= 3`, Filter{"x": Filter{"or": []interface{}{
			Filter{"longer": int64(3)},
			Filter{"of_length": int64(3)},
		}}}},
		// Constant-first comparisons swap operator direction.
		{`5 < x`, Filter{"x": Filter{">": int64(5)}}},
		{`5 >= x`, Filter{"x": Filter{"<=": int64(5)}}},
		{`band_gap IS KNOWN`, Filter{"band_gap": Filter{"!==": nil}}},
		{`band_gap IS UNKNOWN`, Filter{"band_gap": Filter{"==": nil}}},
		{`chemical_formula_descriptive CONTAINS "H2O"`,
			Filter{"chemical_formula_descriptive": Filter{"like": "%H2O%"}}},
		{`id STARTS WITH "uuid"`, Filter{"id": Filter{"like": "uuid%"}}},
		{`id ENDS "0"`, Filter{"id": Filter{"like": "%0"}}},
		{`a<3 AND b>2`, Filter{"and": []interface{}{
			Filter{"a": Filter{"<": int64(3)}},
			Filter{"b": Filter{">": int64(2)}},
		}}},
		{`a<3 OR b>2`, Filter{"or": []interface{}{
			Filter{"a": Filter{"<": int64(3)}},
			Filter{"b": Filter{">": int64(2)}},
		}}},
		// AND binds tighter than OR.
		{`a<1 OR b<2 AND c<3`, Filter{"or": []interface{}{
			Filter{"a": Filter{"<": int64(1)}},
			Filter{"and": []interface{}{
				Filter{"b": Filter{"<": int64(2)}},
				Filter{"c": Filter{"<": int64(3)}},
			}},
		}}},
		// Parentheses override precedence; a single-clause group stays flat.
		{`( a<1 OR b<2 ) AND c<3`, Filter{"and": []interface{}{
			Filter{"or": []interface{}{
				Filter{"a": Filter{"<": int64(1)}},
				Filter{"b": Filter{"<": int64(2)}},
			}},
			Filter{"c": Filter{"<": int64(3)}},
		}}},
		{`NOT ( a<1 AND b<2 )`, Filter{"!and": []interface{}{
			Filter{"and": []interface{}{
				Filter{"a": Filter{"<": int64(1)}},
				Filter{"b": Filter{"<": int64(2)}},
			}},
		}}},
		// Integral floats collapse to integers.
		{`nelements = .2E7`, Filter{"nelements": Filter{"==": int64(2000000)}}},
		{`dotted.path = "v"`, Filter{"dotted.path": Filter{"==": "v"}}},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			got, _, err := transformQB(t, test.in)
			require.NoError(t, err)
			assert.Equal(t, test.exp, got)
		})
	}
}

func TestTransform_Unsupported(t *testing.T) {
	tests := []string{
		`x HAS ONLY 1,2`,
		`x HAS > 3`,
		`elements:elements_ratios HAS "H":0.5`,
		`a = b`,
		`x LENGTH != 3`,
	}
	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, _, err := transformQB(t, in)
			require.Error(t, err)
			assert.IsType(t, &UnsupportedError{}, err)
		})
	}
}

func TestTransform_LengthNonInteger(t *testing.T) {
	_, _, err := transformQB(t, `x LENGTH 3.5`)
	require.Error(t, err)
	// Malformed input rather than a missing feature, so not a 501.
	assert.NotContains(t, err.Error(), "not supported")
}

func TestTransform_Fields(t *testing.T) {
	_, fields, err := transformQB(t, `nelements > 1 AND elements HAS "H" OR 5 < nsites`)
	require.NoError(t, err)
	assert.Equal(t, []string{"elements", "nelements", "nsites"}, fields)
}

type testAliaser map[string]string

func (a testAliaser) AliasFor(field string) string {
	if alias, ok := a[field]; ok {
		return alias
	}
	return field
}

func TestTransform_Aliasing(t *testing.T) {
	expr, err := parser.Parse(`nelements > 1 AND immutable_id = "x"`)
	require.NoError(t, err)
	aliases := testAliaser{
		"nelements":    "extras.optimade.nelements",
		"immutable_id": "uuid",
	}
	got, fields, err := Transform(expr, QueryBuilder{}, aliases)
	require.NoError(t, err)
	assert.Equal(t, Filter{"and": []interface{}{
		Filter{"extras.optimade.nelements": Filter{">": int64(1)}},
		Filter{"uuid": Filter{"==": "x"}},
	}}, got)
	// Field names are reported pre-aliasing.
	assert.Equal(t, []string{"immutable_id", "nelements"}, fields)
}

func TestTransform_Document(t *testing.T) {
	tests := []struct {
		in  string
		exp Filter
	}{
		{`a<3`, Filter{"a": Filter{"$lt": int64(3)}}},
		{`a=3`, Filter{"a": Filter{"$eq": int64(3)}}},
		{`a!=3`, Filter{"a": Filter{"$ne": int64(3)}}},
		{`band_gap IS KNOWN`, Filter{"band_gap": Filter{"$ne": nil}}},
		{`elements HAS ALL "H","He"`, Filter{"elements": Filter{
			"$all": []interface{}{"H", "He"},
		}}},
		{`elements HAS ANY "H","He"`, Filter{"elements": Filter{
			"$in": []interface{}{"H", "He"},
		}}},
		{`x LENGTH 3`, Filter{"x": Filter{"$size": int64(3)}}},
		{`id CONTAINS "a.b"`, Filter{"id": Filter{"$regex": `a\.b`}}},
		{`id STARTS WITH "u"`, Filter{"id": Filter{"$regex": "^u"}}},
		{`NOT a<3`, Filter{"$nor": []interface{}{
			Filter{"a": Filter{"$lt": int64(3)}},
		}}},
		{`a<3 AND b>2`, Filter{"$and": []interface{}{
			Filter{"a": Filter{"$lt": int64(3)}},
			Filter{"b": Filter{"$gt": int64(2)}},
		}}},
	}
	for _, test := range tests {
		t.Run(test.in, func(t *testing.T) {
			expr, err := parser.Parse(test.in)
			require.NoError(t, err)
			got, _, err := Transform(expr, Document{}, nil)
			require.NoError(t, err)
			assert.Equal(t, test.exp, got)
		})
	}

	t.Run("length range unsupported", func(t *testing.T) {
		expr, err := parser.Parse(`x LENGTH < 3`)
		require.NoError(t, err)
		_, _, err = Transform(expr, Document{}, nil)
		require.Error(t, err)
		assert.IsType(t, &UnsupportedError{}, err)
	})
}
