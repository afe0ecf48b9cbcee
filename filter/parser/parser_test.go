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

package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// comparison parses a filter that consists of a single comparison and
// returns that comparison.
func comparison(t *testing.T, in string) Comparison {
	t.Helper()
	expr, err := Parse(in)
	require.NoError(t, err, "parsing %q", in)
	require.Len(t, expr.Clauses, 1)
	require.Len(t, expr.Clauses[0].Phrases, 1)
	phrase := expr.Clauses[0].Phrases[0]
	require.NotNil(t, phrase.Comparison, "expected a comparison for %q", in)
	return phrase.Comparison
}

func TestParseValueComparisons(t *testing.T) {
	tests := []struct {
		in       string
		property string
		op       string
		value    interface{}
	}{
		{`a < 3`, "a", "<", int64(3)},
		{`a<3`, "a", "<", int64(3)},
		{`a >= 3`, "a", ">=", int64(3)},
		{`a != 3`, "a", "!=", int64(3)},
		{`nelements = 14`, "nelements", "=", int64(14)},
		{`a = 3.25`, "a", "=", 3.25},
		{`a = -1.5e-3`, "a", "=", -0.0015},
		{`band_gap > .5`, "band_gap", ">", 0.5},
		{`chemical_formula_reduced = "H2O"`, "chemical_formula_reduced", "=", "H2O"},
		{`_aiida_node_type = "data"`, "_aiida_node_type", "=", "data"},
		{`species.mass < 12.5`, "species.mass", "<", 12.5},
	}
	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			cmp, ok := comparison(t, tc.in).(*PropertyComparison)
			require.True(t, ok, "expected PropertyComparison")
			assert.Equal(t, tc.property, cmp.Property.String())
			rhs, ok := cmp.RHS.(*ValueOpRHS)
			require.True(t, ok, "expected ValueOpRHS")
			assert.Equal(t, tc.op, rhs.Op)
			assert.Equal(t, tc.value, rhs.Value)
		})
	}
}

func TestParseIntegralFloatsCollapse(t *testing.T) {
	// Per the OPTIMADE grammar numeric literals are values, not lexemes:
	// .2E7 is the same number as 2000000.
	tests := map[string]interface{}{
		`a = .2E7`:    int64(2000000),
		`a = 2.0`:     int64(2),
		`a = -4e2`:    int64(-400),
		`a = 2000000`: int64(2000000),
		`a = 0.5`:     0.5,
		`a = 1e300`:   1e300,
	}
	for in, expected := range tests {
		cmp := comparison(t, in).(*PropertyComparison)
		assert.Equal(t, expected, cmp.RHS.(*ValueOpRHS).Value, "input %q", in)
	}
}

func TestParseConstantFirst(t *testing.T) {
	cmp, ok := comparison(t, `5 < x`).(*ConstantComparison)
	require.True(t, ok, "expected ConstantComparison")
	assert.Equal(t, int64(5), cmp.Value)
	assert.Equal(t, "<", cmp.Op)
	assert.Equal(t, "x", cmp.Property.String())

	cmp = comparison(t, `"Si" = elements_descriptive`).(*ConstantComparison)
	assert.Equal(t, "Si", cmp.Value)
	assert.Equal(t, "=", cmp.Op)
}

func TestParseKnown(t *testing.T) {
	cmp := comparison(t, `band_gap IS KNOWN`).(*PropertyComparison)
	assert.Equal(t, &KnownOpRHS{Known: true}, cmp.RHS)
	cmp = comparison(t, `band_gap IS UNKNOWN`).(*PropertyComparison)
	assert.Equal(t, &KnownOpRHS{Known: false}, cmp.RHS)
}

func TestParseFuzzy(t *testing.T) {
	tests := []struct {
		in   string
		kind FuzzyKind
	}{
		{`chemical_formula_descriptive CONTAINS "H2O"`, FuzzyContains},
		{`chemical_formula_descriptive STARTS WITH "H2O"`, FuzzyStartsWith},
		{`chemical_formula_descriptive STARTS "H2O"`, FuzzyStartsWith},
		{`chemical_formula_descriptive ENDS WITH "H2O"`, FuzzyEndsWith},
		{`chemical_formula_descriptive ENDS "H2O"`, FuzzyEndsWith},
	}
	for _, tc := range tests {
		cmp := comparison(t, tc.in).(*PropertyComparison)
		assert.Equal(t, &FuzzyOpRHS{Kind: tc.kind, Value: "H2O"}, cmp.RHS, "input %q", tc.in)
	}
}

func TestParseHas(t *testing.T) {
	cmp := comparison(t, `elements HAS "Si"`).(*PropertyComparison)
	assert.Equal(t, &SetOpRHS{Kind: SetHas, Values: []interface{}{"Si"}}, cmp.RHS)

	cmp = comparison(t, `elements HAS ALL "H","He"`).(*PropertyComparison)
	assert.Equal(t, &SetOpRHS{Kind: SetHasAll, Values: []interface{}{"H", "He"}}, cmp.RHS)

	cmp = comparison(t, `elements HAS ANY "H", "He"`).(*PropertyComparison)
	assert.Equal(t, &SetOpRHS{Kind: SetHasAny, Values: []interface{}{"H", "He"}}, cmp.RHS)

	cmp = comparison(t, `x HAS ONLY 1,2`).(*PropertyComparison)
	assert.Equal(t, &SetOpRHS{Kind: SetHasOnly, Values: []interface{}{int64(1), int64(2)}}, cmp.RHS)

	cmp = comparison(t, `elements_ratios HAS > 0.25`).(*PropertyComparison)
	assert.Equal(t, &SetOpRHS{Kind: SetHasOp, Op: ">", Values: []interface{}{0.25}}, cmp.RHS)
}

func TestParseLength(t *testing.T) {
	cmp := comparison(t, `elements LENGTH 3`).(*LengthComparison)
	assert.Equal(t, "elements", cmp.Property.String())
	assert.Equal(t, "=", cmp.Op)
	assert.Equal(t, int64(3), cmp.Value)

	cmp = comparison(t, `x LENGTH <= 3`).(*LengthComparison)
	assert.Equal(t, "<=", cmp.Op)

	cmp = comparison(t, `cartesian_site_positions LENGTH > 10`).(*LengthComparison)
	assert.Equal(t, ">", cmp.Op)
	assert.Equal(t, int64(10), cmp.Value)
}

func TestParseZips(t *testing.T) {
	cmp := comparison(t, `elements:elements_ratios HAS "Si":0.5`).(*PropertyComparison)
	zip, ok := cmp.Property.(ZipProperty)
	require.True(t, ok, "expected ZipProperty")
	assert.Equal(t, "elements:elements_ratios", zip.String())
	rhs := cmp.RHS.(*SetOpRHS)
	require.Len(t, rhs.Values, 1)
	assert.Equal(t, ValueZip{"Si", 0.5}, rhs.Values[0])
}

func TestParseBooleanStructure(t *testing.T) {
	// AND binds tighter than OR.
	expr := MustParse(`a < 1 OR b < 2 AND c < 3`)
	require.Len(t, expr.Clauses, 2)
	assert.Len(t, expr.Clauses[0].Phrases, 1)
	assert.Len(t, expr.Clauses[1].Phrases, 2)

	// Parentheses override.
	expr = MustParse(`(a < 1 OR b < 2) AND c < 3`)
	require.Len(t, expr.Clauses, 1)
	require.Len(t, expr.Clauses[0].Phrases, 2)
	nested := expr.Clauses[0].Phrases[0].Nested
	require.NotNil(t, nested)
	assert.Len(t, nested.Clauses, 2)
}

func TestParseNot(t *testing.T) {
	expr := MustParse(`NOT a < 3`)
	phrase := expr.Clauses[0].Phrases[0]
	assert.True(t, phrase.Not)
	assert.NotNil(t, phrase.Comparison)

	expr = MustParse(`NOT (a < 3 AND b > 2)`)
	phrase = expr.Clauses[0].Phrases[0]
	assert.True(t, phrase.Not)
	assert.NotNil(t, phrase.Nested)
}

func TestParseErrors(t *testing.T) {
	tests := []string{
		``,
		`a <`,
		`a < 3 AND`,
		`AND a < 3`,
		`a HAS ONLY`,
		`(a < 3`,
		`a = "unterminated`,
	}
	for _, in := range tests {
		expr, err := Parse(in)
		assert.Nil(t, expr, "input %q", in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseErrorPositions(t *testing.T) {
	_, err := Parse(`a < 3 banana`)
	require.Error(t, err)
	pe, ok := err.(*ParseError)
	require.True(t, ok, "expected *ParseError, got %T", err)
	assert.Equal(t, 1, pe.Line)
	assert.Equal(t, 7, pe.Column)
	assert.Contains(t, pe.Error(), "line 1 column 7")
}

func TestParseTrailingWhitespaceOK(t *testing.T) {
	expr, err := Parse("a < 3 \n")
	assert.NoError(t, err)
	assert.NotNil(t, expr)
}

func TestExpressionString(t *testing.T) {
	for _, in := range []string{
		`a < 3`,
		`NOT a < 3`,
		`elements HAS ALL "H","He"`,
		`a < 1 AND b < 2 OR c < 3`,
	} {
		assert.NotEmpty(t, MustParse(in).String())
	}
}
