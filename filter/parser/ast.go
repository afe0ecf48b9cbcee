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
	"fmt"
	"strconv"
	"strings"
)

// The types in this file describe the parse tree of an OPTIMADE filter
// expression. Names follow the rule names from the OPTIMADE grammar
// (expression, expression_clause, expression_phrase, comparison and its
// *_op_rhs variants). The tree is input to the filter transformer, which
// turns it into a backend-native filter; nothing in here knows about any
// backend.

// Expression is the root of a filter parse tree: one or more clauses joined
// by OR. AND binds tighter than OR, so the OR level is outermost.
type Expression struct {
	Clauses []*ExpressionClause
}

func (e *Expression) String() string {
	parts := make([]string, len(e.Clauses))
	for i, c := range e.Clauses {
		parts[i] = c.String()
	}
	return strings.Join(parts, " OR ")
}

// ExpressionClause is one or more phrases joined by AND.
type ExpressionClause struct {
	Phrases []*ExpressionPhrase
}

func (c *ExpressionClause) String() string {
	parts := make([]string, len(c.Phrases))
	for i, p := range c.Phrases {
		parts[i] = p.String()
	}
	return strings.Join(parts, " AND ")
}

// ExpressionPhrase is an optionally negated comparison or parenthesized
// sub-expression. Exactly one of Comparison and Nested is set.
type ExpressionPhrase struct {
	Not        bool
	Comparison Comparison
	Nested     *Expression
}

func (p *ExpressionPhrase) String() string {
	var inner string
	if p.Nested != nil {
		inner = "(" + p.Nested.String() + ")"
	} else {
		inner = p.Comparison.String()
	}
	if p.Not {
		return "NOT " + inner
	}
	return inner
}

// Comparison is a marker interface for the three comparison forms.
type Comparison interface {
	isComparison()
	String() string
}

var _ = []Comparison{
	new(PropertyComparison),
	new(ConstantComparison),
	new(LengthComparison),
}

// PropertyComparison is the common property-first form: a property followed
// by one of the *_op_rhs constructs.
type PropertyComparison struct {
	Property PropertyRef
	RHS      ComparisonRHS
}

func (c *PropertyComparison) isComparison() {}
func (c *PropertyComparison) String() string {
	return c.Property.String() + " " + c.RHS.String()
}

// ConstantComparison is the constant-first form, e.g. `5 < x`. The operator
// is written relative to the constant; consumers must reverse it to get the
// property-relative meaning.
type ConstantComparison struct {
	Value    interface{}
	Op       string
	Property PropertyRef
}

func (c *ConstantComparison) isComparison() {}
func (c *ConstantComparison) String() string {
	return fmt.Sprintf("%s %s %s", FormatValue(c.Value), c.Op, c.Property)
}

// LengthComparison is `property LENGTH [op] value`. A missing operator in
// the input is recorded as "=".
type LengthComparison struct {
	Property PropertyRef
	Op       string
	Value    interface{}
}

func (c *LengthComparison) isComparison() {}
func (c *LengthComparison) String() string {
	return fmt.Sprintf("%s LENGTH %s %s", c.Property, c.Op, FormatValue(c.Value))
}

// PropertyRef is either a plain (dotted) property or a zip of correlated
// properties.
type PropertyRef interface {
	isProperty()
	String() string
}

// Property is a dotted property path, one segment per element.
type Property []string

func (p Property) isProperty() {}
func (p Property) String() string {
	return strings.Join(p, ".")
}

// ZipProperty is two or more properties correlated with ':', e.g.
// `elements:elements_ratios`.
type ZipProperty []Property

func (z ZipProperty) isProperty() {}
func (z ZipProperty) String() string {
	parts := make([]string, len(z))
	for i, p := range z {
		parts[i] = p.String()
	}
	return strings.Join(parts, ":")
}

// ValueZip is two or more values correlated with ':' on the right-hand side
// of a HAS over zipped properties.
type ValueZip []interface{}

// ComparisonRHS is a marker interface for the right-hand side of a
// property-first comparison.
type ComparisonRHS interface {
	isRHS()
	String() string
}

var _ = []ComparisonRHS{
	new(ValueOpRHS),
	new(KnownOpRHS),
	new(FuzzyOpRHS),
	new(SetOpRHS),
}

// ValueOpRHS is `<op> value`, e.g. `>= 3`.
type ValueOpRHS struct {
	Op    string
	Value interface{}
}

func (r *ValueOpRHS) isRHS() {}
func (r *ValueOpRHS) String() string {
	return r.Op + " " + FormatValue(r.Value)
}

// KnownOpRHS is `IS KNOWN` or `IS UNKNOWN`.
type KnownOpRHS struct {
	Known bool
}

func (r *KnownOpRHS) isRHS() {}
func (r *KnownOpRHS) String() string {
	if r.Known {
		return "IS KNOWN"
	}
	return "IS UNKNOWN"
}

// FuzzyKind enumerates the string-matching comparisons.
type FuzzyKind int

const (
	// FuzzyContains matches the pattern anywhere in the value.
	FuzzyContains FuzzyKind = iota + 1
	// FuzzyStartsWith anchors the pattern at the start.
	FuzzyStartsWith
	// FuzzyEndsWith anchors the pattern at the end.
	FuzzyEndsWith
)

func (k FuzzyKind) String() string {
	switch k {
	case FuzzyContains:
		return "CONTAINS"
	case FuzzyStartsWith:
		return "STARTS WITH"
	case FuzzyEndsWith:
		return "ENDS WITH"
	default:
		return fmt.Sprintf("Unknown FuzzyKind (%d)", int(k))
	}
}

// FuzzyOpRHS is `CONTAINS "x"`, `STARTS [WITH] "x"` or `ENDS [WITH] "x"`.
type FuzzyOpRHS struct {
	Kind  FuzzyKind
	Value string
}

func (r *FuzzyOpRHS) isRHS() {}
func (r *FuzzyOpRHS) String() string {
	return fmt.Sprintf("%s %q", r.Kind, r.Value)
}

// SetKind enumerates the HAS comparison forms.
type SetKind int

const (
	// SetHas is the bare `HAS value` form.
	SetHas SetKind = iota + 1
	// SetHasAll is `HAS ALL v1,v2,...`.
	SetHasAll
	// SetHasAny is `HAS ANY v1,v2,...`.
	SetHasAny
	// SetHasOnly is `HAS ONLY v1,v2,...`.
	SetHasOnly
	// SetHasOp is `HAS <op> value`, e.g. `HAS > 3`.
	SetHasOp
)

func (k SetKind) String() string {
	switch k {
	case SetHas:
		return "HAS"
	case SetHasAll:
		return "HAS ALL"
	case SetHasAny:
		return "HAS ANY"
	case SetHasOnly:
		return "HAS ONLY"
	case SetHasOp:
		return "HAS <op>"
	default:
		return fmt.Sprintf("Unknown SetKind (%d)", int(k))
	}
}

// SetOpRHS covers all the HAS forms. Op is only set for SetHasOp.
type SetOpRHS struct {
	Kind   SetKind
	Op     string
	Values []interface{}
}

func (r *SetOpRHS) isRHS() {}
func (r *SetOpRHS) String() string {
	parts := make([]string, len(r.Values))
	for i, v := range r.Values {
		parts[i] = FormatValue(v)
	}
	vals := strings.Join(parts, ",")
	switch r.Kind {
	case SetHas:
		return "HAS " + vals
	case SetHasOp:
		return fmt.Sprintf("HAS %s %s", r.Op, vals)
	default:
		return r.Kind.String() + " " + vals
	}
}

// FormatValue renders a parsed value the way it would appear in filter text.
// Values are native Go types: string, int64, float64, Property or ValueZip.
func FormatValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return strconv.Quote(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case Property:
		return t.String()
	case ValueZip:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = FormatValue(e)
		}
		return strings.Join(parts, ":")
	default:
		return fmt.Sprintf("%v", v)
	}
}
