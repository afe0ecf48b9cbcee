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

// Package filter transforms OPTIMADE filter parse trees into backend-native
// filter expressions: nested mappings of field -> operator -> value wrapped
// in conjunction/disjunction markers. Two dialects share the same tree
// walker: the AiiDA query-builder dialect and a document-store dialect.
package filter

import (
	"encoding/json"
	"fmt"
)

// Filter is a backend-native filter expression. The keys are either boolean
// combinators ("and", "or", "!and" in the query-builder dialect; "$and" etc.
// in the document dialect) mapping to lists of sub-filters, or backend field
// paths mapping to operator -> value mappings. By the time a Filter reaches
// the storage layer every field key is the backend-aliased path, never the
// OPTIMADE canonical name.
type Filter map[string]interface{}

func (f Filter) String() string {
	b, err := json.Marshal(f)
	if err != nil {
		return fmt.Sprintf("%#v", map[string]interface{}(f))
	}
	return string(b)
}

// Dialect builds the backend-specific pieces of a filter. The tree walker in
// Transform supplies it with already-aliased field paths and native Go
// values (string, int64, float64).
type Dialect interface {
	// Name identifies the dialect in error messages.
	Name() string
	// Compare builds `field <op> value` where op is the OPTIMADE operator
	// (= != < <= > >=).
	Compare(field, op string, value interface{}) (Filter, error)
	// Known builds the IS KNOWN (known=true) / IS UNKNOWN predicate. Note
	// the inversion: KNOWN means "not equal to null".
	Known(field string, known bool) Filter
	// Fuzzy builds CONTAINS / STARTS WITH / ENDS WITH.
	Fuzzy(field string, kind FuzzyKind, pattern string) Filter
	// Has builds the bare HAS / HAS ALL predicate: every value must be
	// present in the list-valued field.
	Has(field string, values []interface{}) Filter
	// HasAny builds HAS ANY: at least one value present.
	HasAny(field string, values []interface{}) Filter
	// Length builds `field LENGTH <op> n`.
	Length(field, op string, n int64) (Filter, error)
	// And combines clauses conjunctively, Or disjunctively. A single-clause
	// list is returned unwrapped.
	And(clauses []Filter) Filter
	Or(clauses []Filter) Filter
	// Not negates a clause: none of the enclosed predicates may hold.
	Not(clause Filter) Filter
}

// FuzzyKind re-exports the parser's fuzzy-match kinds so that dialect
// implementations don't need to import the parser.
type FuzzyKind int

const (
	// Contains matches the pattern anywhere in the value.
	Contains FuzzyKind = iota + 1
	// StartsWith anchors the pattern at the start.
	StartsWith
	// EndsWith anchors the pattern at the end.
	EndsWith
)

// Aliaser translates an OPTIMADE canonical property name into the backend
// storage path the filter should be expressed in.
type Aliaser interface {
	AliasFor(field string) string
}

// identity is the Aliaser used when none is supplied.
type identity struct{}

func (identity) AliasFor(field string) string { return field }

// wrap is a helper for dialects: {field: {op: value}}.
func wrap(field, op string, value interface{}) Filter {
	return Filter{field: Filter{op: value}}
}

// clauseList converts []Filter to the []interface{} shape used inside
// combinator lists, which keeps filters comparable after a JSON round trip.
func clauseList(clauses []Filter) []interface{} {
	out := make([]interface{}, len(clauses))
	for i, c := range clauses {
		out[i] = c
	}
	return out
}
