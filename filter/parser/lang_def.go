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
	p "github.com/vektah/goparsify"
)

var (
	// filterRoot is the parser function called by Parse. It extracts an
	// OPTIMADE filter expression in its entirety.
	filterRoot p.Parser
	// expression is the recursive expression parser; parenthesized groups
	// reference it through nestedExpression.
	expression p.Parser
)

// nestedExpression defers resolution of the package-level expression parser
// so that parenthesized groups can recurse into it.
var nestedExpression = p.Parser(func(ps *p.State, node *p.Result) {
	expression(ps, node)
})

func init() {
	// If you need to debug what the parser is doing, you can enable
	// goparsify's built in debug support by building with -tags debug. See
	// https://github.com/vektah/goparsify#debugging-parsers

	property := propertyRef()
	operator := comparisonOperator()
	str := p.StringLit(`"`).Map(func(n *p.Result) { n.Result = n.Token }) // "H2O"
	number := numberLiteral()                                             // 42 || 4.2 || .2E7

	// A constant is a quoted string or a number; a value may additionally be
	// a property (property-to-property comparisons reach the transformer,
	// which reports them as unsupported rather than failing to parse).
	constant := p.Any(str, number)
	value := p.Any(str, number, property)
	// v1:v2[:v3...] zips used with correlated list properties. The Cut after
	// each separator makes a dangling separator a parse error instead of
	// being silently backtracked over.
	valueZip := p.Seq(value, repeatZeroOrMore(p.Seq(":", p.Cut(), value))).Map(valueZipResult)
	valueList := p.Seq(valueZip, repeatZeroOrMore(p.Seq(",", p.Cut(), valueZip))).Map(valueListResult)

	valueOpRHS := p.Seq(operator, valueZip).Map(valueOpResult)                     // >= 3
	knownOpRHS := p.Seq("IS", p.Cut(), p.Any("KNOWN", "UNKNOWN")).Map(knownResult) // IS KNOWN

	containsRHS := p.Seq("CONTAINS", p.Cut(), str).Map(fuzzyResult(FuzzyContains, 2))                // CONTAINS "ac"
	startsRHS := p.Seq("STARTS", p.Cut(), p.Maybe("WITH"), str).Map(fuzzyResult(FuzzyStartsWith, 3)) // STARTS [WITH] "ac"
	endsRHS := p.Seq("ENDS", p.Cut(), p.Maybe("WITH"), str).Map(fuzzyResult(FuzzyEndsWith, 3))       // ENDS [WITH] "ac"

	hasAll := p.Seq("ALL", p.Cut(), valueList).Map(setResult(SetHasAll))
	hasAny := p.Seq("ANY", p.Cut(), valueList).Map(setResult(SetHasAny))
	hasOnly := p.Seq("ONLY", p.Cut(), valueList).Map(setResult(SetHasOnly))
	hasOp := p.Seq(operator, valueZip).Map(setOpResult) // HAS > 3
	hasBare := p.Seq(valueZip).Map(setBareResult)       // HAS "H"
	setOpRHS := p.Seq("HAS", p.Cut(), p.Any(hasAll, hasAny, hasOnly, hasOp, hasBare)).Map(child(2))

	lengthRHS := p.Seq("LENGTH", p.Cut(), p.Maybe(operator), value).Map(lengthResult) // LENGTH <= 3

	rhs := p.Any(lengthRHS, knownOpRHS, containsRHS, startsRHS, endsRHS, setOpRHS, valueOpRHS)
	propertyFirst := p.Seq(property, rhs).Map(propertyFirstResult)                // a >= 3
	constantFirst := p.Seq(constant, operator, property).Map(constantFirstResult) // 5 < a
	comparison := p.Any(constantFirst, propertyFirst)

	group := p.Seq("(", p.Cut(), nestedExpression, ")").Map(child(2))
	phrase := p.Seq(p.Maybe(p.Bind("NOT", true)), p.Any(group, comparison)).Map(phraseResult)
	clause := p.Seq(phrase, repeatZeroOrMore(p.Seq("AND", p.Cut(), phrase))).Map(clauseResult)
	expression = p.Seq(clause, repeatZeroOrMore(p.Seq("OR", p.Cut(), clause))).Map(expressionResult)

	filterRoot = expression
}
