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

import "regexp"

// Document is the document-store dialect, emitting MongoDB-style query
// operators. It exists for deployments that mirror entries into a document
// database; the in-process adapter uses the QueryBuilder dialect.
type Document struct{}

var _ Dialect = Document{}

func (Document) Name() string { return "document" }

var docOps = map[string]string{
	"=":  "$eq",
	"!=": "$ne",
	"<":  "$lt",
	"<=": "$lte",
	">":  "$gt",
	">=": "$gte",
}

func (Document) Compare(field, op string, value interface{}) (Filter, error) {
	dop, ok := docOps[op]
	if !ok {
		return nil, unsupported("operator %s", op)
	}
	return wrap(field, dop, value), nil
}

func (Document) Known(field string, known bool) Filter {
	if known {
		return wrap(field, "$ne", nil)
	}
	return wrap(field, "$eq", nil)
}

func (Document) Fuzzy(field string, kind FuzzyKind, pattern string) Filter {
	quoted := regexp.QuoteMeta(pattern)
	switch kind {
	case StartsWith:
		quoted = "^" + quoted
	case EndsWith:
		quoted = quoted + "$"
	}
	return wrap(field, "$regex", quoted)
}

func (Document) Has(field string, values []interface{}) Filter {
	return wrap(field, "$all", values)
}

func (Document) HasAny(field string, values []interface{}) Filter {
	return wrap(field, "$in", values)
}

func (Document) Length(field, op string, n int64) (Filter, error) {
	// $size only supports exact match; there is no shorter/longer operator.
	if op == "=" {
		return wrap(field, "$size", n), nil
	}
	return nil, unsupported("LENGTH with operator %s", op)
}

func (Document) And(clauses []Filter) Filter {
	if len(clauses) == 1 {
		return clauses[0]
	}
	return Filter{"$and": clauseList(clauses)}
}

func (Document) Or(clauses []Filter) Filter {
	if len(clauses) == 1 {
		return clauses[0]
	}
	return Filter{"$or": clauseList(clauses)}
}

func (Document) Not(clause Filter) Filter {
	return Filter{"$nor": []interface{}{clause}}
}
