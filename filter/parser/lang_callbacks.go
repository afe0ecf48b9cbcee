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

	"github.com/vektah/goparsify"
)

// child returns a Map callback that lifts the result of the n-th child.
func child(n int) func(*goparsify.Result) {
	return func(r *goparsify.Result) {
		r.Result = r.Child[n].Result
	}
}

// valueZipResult collapses `value (":" value)*` to the bare value for the
// common unzipped case, or a ValueZip otherwise.
func valueZipResult(n *goparsify.Result) {
	rest := n.Child[1].Child
	if len(rest) == 0 {
		n.Result = n.Child[0].Result
		return
	}
	zip := ValueZip{n.Child[0].Result}
	for _, c := range rest {
		zip = append(zip, c.Child[2].Result)
	}
	n.Result = zip
}

// valueListResult flattens `valueZip ("," valueZip)*` into a []interface{}.
func valueListResult(n *goparsify.Result) {
	values := []interface{}{n.Child[0].Result}
	for _, c := range n.Child[1].Child {
		values = append(values, c.Child[2].Result)
	}
	n.Result = values
}

func valueOpResult(n *goparsify.Result) {
	n.Result = &ValueOpRHS{
		Op:    n.Child[0].Token,
		Value: n.Child[1].Result,
	}
}

func knownResult(n *goparsify.Result) {
	switch n.Child[2].Token {
	case "KNOWN":
		n.Result = &KnownOpRHS{Known: true}
	case "UNKNOWN":
		n.Result = &KnownOpRHS{Known: false}
	default:
		panic(fmt.Sprintf("unsupported IS keyword: %s", n.Child[2].Token))
	}
}

// fuzzyResult builds the callback for CONTAINS/STARTS/ENDS; valueIdx is the
// child index of the string literal.
func fuzzyResult(kind FuzzyKind, valueIdx int) func(*goparsify.Result) {
	return func(n *goparsify.Result) {
		n.Result = &FuzzyOpRHS{
			Kind:  kind,
			Value: n.Child[valueIdx].Result.(string),
		}
	}
}

// setResult builds the callback for HAS ALL/ANY/ONLY; the value list is the
// third child of the keyword sequence.
func setResult(kind SetKind) func(*goparsify.Result) {
	return func(n *goparsify.Result) {
		n.Result = &SetOpRHS{
			Kind:   kind,
			Values: n.Child[2].Result.([]interface{}),
		}
	}
}

func setOpResult(n *goparsify.Result) {
	n.Result = &SetOpRHS{
		Kind:   SetHasOp,
		Op:     n.Child[0].Token,
		Values: []interface{}{n.Child[1].Result},
	}
}

func setBareResult(n *goparsify.Result) {
	n.Result = &SetOpRHS{
		Kind:   SetHas,
		Values: []interface{}{n.Child[0].Result},
	}
}

// lengthRHS is an intermediate carrier for `LENGTH [op] value`;
// propertyFirstResult turns it into a LengthComparison.
type lengthRHS struct {
	op    string
	value interface{}
}

func lengthResult(n *goparsify.Result) {
	op := n.Child[2].Token
	if op == "" {
		op = "="
	}
	n.Result = &lengthRHS{op: op, value: n.Child[3].Result}
}

func propertyFirstResult(n *goparsify.Result) {
	prop := n.Child[0].Result.(PropertyRef)
	switch rhs := n.Child[1].Result.(type) {
	case *lengthRHS:
		n.Result = &LengthComparison{Property: prop, Op: rhs.op, Value: rhs.value}
	case ComparisonRHS:
		n.Result = &PropertyComparison{Property: prop, RHS: rhs}
	default:
		panic(fmt.Sprintf("unsupported comparison rhs type: %T", rhs))
	}
}

func constantFirstResult(n *goparsify.Result) {
	n.Result = &ConstantComparison{
		Value:    n.Child[0].Result,
		Op:       n.Child[1].Token,
		Property: n.Child[2].Result.(PropertyRef),
	}
}

func phraseResult(n *goparsify.Result) {
	phrase := &ExpressionPhrase{
		Not: n.Child[0].Result != nil,
	}
	switch inner := n.Child[1].Result.(type) {
	case *Expression:
		phrase.Nested = inner
	case Comparison:
		phrase.Comparison = inner
	default:
		panic(fmt.Sprintf("unsupported phrase content type: %T", inner))
	}
	n.Result = phrase
}

func clauseResult(n *goparsify.Result) {
	clause := &ExpressionClause{
		Phrases: []*ExpressionPhrase{n.Child[0].Result.(*ExpressionPhrase)},
	}
	for _, c := range n.Child[1].Child {
		clause.Phrases = append(clause.Phrases, c.Child[2].Result.(*ExpressionPhrase))
	}
	n.Result = clause
}

func expressionResult(n *goparsify.Result) {
	expr := &Expression{
		Clauses: []*ExpressionClause{n.Child[0].Result.(*ExpressionClause)},
	}
	for _, c := range n.Child[1].Child {
		expr.Clauses = append(expr.Clauses, c.Child[2].Result.(*ExpressionClause))
	}
	n.Result = expr
}
