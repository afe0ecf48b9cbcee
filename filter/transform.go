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
	"fmt"
	"sort"

	"github.com/aiidateam/optimade-go/filter/parser"
)

// reversedOps maps a constant-first operator to the equivalent
// property-first one: `5 < x` means `x > 5`.
var reversedOps = map[string]string{
	"=":  "=",
	"!=": "!=",
	"<":  ">",
	"<=": ">=",
	">":  "<",
	">=": "<=",
}

// transformer walks a parse tree collecting the backend filter and the set
// of OPTIMADE property names the filter touches.
type transformer struct {
	dialect Dialect
	aliaser Aliaser
	fields  map[string]bool
}

// Transform turns a parsed filter expression into a backend-native Filter in
// the given dialect. Property names are rewritten through the aliaser (pass
// nil for no aliasing). The returned field list holds the OPTIMADE names, not
// the aliases, of every property the filter references, sorted; callers use
// it to decide which derived attributes must exist before querying.
func Transform(expr *parser.Expression, d Dialect, a Aliaser) (Filter, []string, error) {
	if a == nil {
		a = identity{}
	}
	t := &transformer{dialect: d, aliaser: a, fields: map[string]bool{}}
	f, err := t.expression(expr)
	if err != nil {
		return nil, nil, err
	}
	fields := make([]string, 0, len(t.fields))
	for name := range t.fields {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return f, fields, nil
}

func (t *transformer) expression(e *parser.Expression) (Filter, error) {
	clauses := make([]Filter, len(e.Clauses))
	for i, c := range e.Clauses {
		f, err := t.clause(c)
		if err != nil {
			return nil, err
		}
		clauses[i] = f
	}
	return t.dialect.Or(clauses), nil
}

func (t *transformer) clause(c *parser.ExpressionClause) (Filter, error) {
	phrases := make([]Filter, len(c.Phrases))
	for i, p := range c.Phrases {
		f, err := t.phrase(p)
		if err != nil {
			return nil, err
		}
		phrases[i] = f
	}
	return t.dialect.And(phrases), nil
}

func (t *transformer) phrase(p *parser.ExpressionPhrase) (Filter, error) {
	var inner Filter
	var err error
	if p.Nested != nil {
		inner, err = t.expression(p.Nested)
	} else {
		inner, err = t.comparison(p.Comparison)
	}
	if err != nil {
		return nil, err
	}
	if p.Not {
		return t.dialect.Not(inner), nil
	}
	return inner, nil
}

func (t *transformer) comparison(c parser.Comparison) (Filter, error) {
	switch cmp := c.(type) {
	case *parser.PropertyComparison:
		field, err := t.field(cmp.Property)
		if err != nil {
			return nil, err
		}
		return t.rhs(field, cmp.RHS)
	case *parser.ConstantComparison:
		field, err := t.field(cmp.Property)
		if err != nil {
			return nil, err
		}
		op, ok := reversedOps[cmp.Op]
		if !ok {
			return nil, fmt.Errorf("unexpected operator %q in comparison %s", cmp.Op, cmp)
		}
		value, err := scalar(cmp.Value)
		if err != nil {
			return nil, err
		}
		return t.dialect.Compare(field, op, value)
	case *parser.LengthComparison:
		field, err := t.field(cmp.Property)
		if err != nil {
			return nil, err
		}
		n, ok := cmp.Value.(int64)
		if !ok {
			return nil, fmt.Errorf("LENGTH requires an integer, got %s",
				parser.FormatValue(cmp.Value))
		}
		return t.dialect.Length(field, cmp.Op, n)
	default:
		return nil, fmt.Errorf("unexpected comparison type %T", c)
	}
}

func (t *transformer) rhs(field string, rhs parser.ComparisonRHS) (Filter, error) {
	switch r := rhs.(type) {
	case *parser.ValueOpRHS:
		value, err := scalar(r.Value)
		if err != nil {
			return nil, err
		}
		return t.dialect.Compare(field, r.Op, value)
	case *parser.KnownOpRHS:
		return t.dialect.Known(field, r.Known), nil
	case *parser.FuzzyOpRHS:
		var kind FuzzyKind
		switch r.Kind {
		case parser.FuzzyContains:
			kind = Contains
		case parser.FuzzyStartsWith:
			kind = StartsWith
		case parser.FuzzyEndsWith:
			kind = EndsWith
		default:
			return nil, fmt.Errorf("unexpected fuzzy kind %v", r.Kind)
		}
		return t.dialect.Fuzzy(field, kind, r.Value), nil
	case *parser.SetOpRHS:
		return t.setRHS(field, r)
	default:
		return nil, fmt.Errorf("unexpected comparison RHS type %T", rhs)
	}
}

func (t *transformer) setRHS(field string, r *parser.SetOpRHS) (Filter, error) {
	switch r.Kind {
	case parser.SetHasOnly:
		return nil, unsupported("HAS ONLY")
	case parser.SetHasOp:
		return nil, unsupported("HAS %s", r.Op)
	}
	values := make([]interface{}, len(r.Values))
	for i, v := range r.Values {
		s, err := scalar(v)
		if err != nil {
			return nil, err
		}
		values[i] = s
	}
	switch r.Kind {
	case parser.SetHas, parser.SetHasAll:
		return t.dialect.Has(field, values), nil
	case parser.SetHasAny:
		return t.dialect.HasAny(field, values), nil
	default:
		return nil, fmt.Errorf("unexpected set kind %v", r.Kind)
	}
}

// field resolves a property reference to its backend alias and records the
// OPTIMADE name. Zipped properties parse but have no backend rendering.
func (t *transformer) field(ref parser.PropertyRef) (string, error) {
	switch p := ref.(type) {
	case parser.Property:
		name := p.String()
		t.fields[name] = true
		return t.aliaser.AliasFor(name), nil
	case parser.ZipProperty:
		return "", unsupported("zipped properties (%s)", p)
	default:
		return "", fmt.Errorf("unexpected property type %T", ref)
	}
}

// scalar rejects values that are grammatically valid but cannot appear as a
// comparison operand in the backends: property-valued operands and zips.
func scalar(v interface{}) (interface{}, error) {
	switch v.(type) {
	case string, int64, float64:
		return v, nil
	case parser.Property, parser.ZipProperty:
		return nil, unsupported("property-valued operands (%s)", parser.FormatValue(v))
	case parser.ValueZip:
		return nil, unsupported("zipped values (%s)", parser.FormatValue(v))
	default:
		return nil, fmt.Errorf("unexpected value type %T", v)
	}
}
