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

// QueryBuilder is the dialect understood by the AiiDA query builder and by
// the in-memory store. Equality operators become "==" / "!==", string
// matching uses SQL-style "like" patterns, list predicates use "contains"
// and the length operators shorter / longer / of_length.
type QueryBuilder struct{}

var _ Dialect = QueryBuilder{}

func (QueryBuilder) Name() string { return "querybuilder" }

var qbOps = map[string]string{
	"=":  "==",
	"!=": "!==",
	"<":  "<",
	"<=": "<=",
	">":  ">",
	">=": ">=",
}

func (QueryBuilder) Compare(field, op string, value interface{}) (Filter, error) {
	qop, ok := qbOps[op]
	if !ok {
		return nil, unsupported("operator %s", op)
	}
	return wrap(field, qop, value), nil
}

// Known inverts: IS KNOWN means the field is not null.
func (QueryBuilder) Known(field string, known bool) Filter {
	if known {
		return wrap(field, "!==", nil)
	}
	return wrap(field, "==", nil)
}

func (QueryBuilder) Fuzzy(field string, kind FuzzyKind, pattern string) Filter {
	switch kind {
	case StartsWith:
		pattern = pattern + "%"
	case EndsWith:
		pattern = "%" + pattern
	default:
		pattern = "%" + pattern + "%"
	}
	return wrap(field, "like", pattern)
}

func (QueryBuilder) Has(field string, values []interface{}) Filter {
	return wrap(field, "contains", values)
}

// HasAny is a disjunction of singleton containments, nested under the field
// so the whole predicate stays addressed to one list-valued column.
func (QueryBuilder) HasAny(field string, values []interface{}) Filter {
	terms := make([]interface{}, len(values))
	for i, v := range values {
		terms[i] = Filter{"contains": []interface{}{v}}
	}
	return wrap(field, "or", terms)
}

func (QueryBuilder) Length(field, op string, n int64) (Filter, error) {
	switch op {
	case "=":
		return wrap(field, "of_length", n), nil
	case "<":
		return wrap(field, "shorter", n), nil
	case ">":
		return wrap(field, "longer", n), nil
	case "<=":
		return wrap(field, "or", []interface{}{
			Filter{"shorter": n},
			Filter{"of_length": n},
		}), nil
	case ">=":
		return wrap(field, "or", []interface{}{
			Filter{"longer": n},
			Filter{"of_length": n},
		}), nil
	default:
		return nil, unsupported("LENGTH with operator %s", op)
	}
}

func (QueryBuilder) And(clauses []Filter) Filter {
	if len(clauses) == 1 {
		return clauses[0]
	}
	return Filter{"and": clauseList(clauses)}
}

func (QueryBuilder) Or(clauses []Filter) Filter {
	if len(clauses) == 1 {
		return clauses[0]
	}
	return Filter{"or": clauseList(clauses)}
}

// Not wraps in "!and": none of the enclosed clauses may hold, which for a
// single clause is plain negation.
func (QueryBuilder) Not(clause Filter) Filter {
	return Filter{"!and": []interface{}{clause}}
}
