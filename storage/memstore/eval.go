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
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aiidateam/optimade-go/filter"
	"github.com/aiidateam/optimade-go/storage"
)

// resolve reads the value at a backend-aliased dotted path of an entity.
// Missing paths resolve to nil.
func resolve(e *storage.Entity, path string) interface{} {
	switch path {
	case "id":
		return e.PK
	case "uuid":
		return e.UUID
	case "node_type":
		return e.NodeType
	case "ctime":
		return e.CTime
	case "mtime":
		return e.MTime
	}
	if rest, ok := trimSegment(path, "attributes"); ok {
		return lookupPath(e.Attrs, rest)
	}
	if rest, ok := trimSegment(path, "extras"); ok {
		return lookupPath(e.Extras, rest)
	}
	return nil
}

func trimSegment(path, segment string) (string, bool) {
	if path == segment {
		return "", true
	}
	if strings.HasPrefix(path, segment+".") {
		return path[len(segment)+1:], true
	}
	return "", false
}

// lookupPath walks a nested mapping along a dotted path. An empty path
// returns the mapping itself.
func lookupPath(m map[string]interface{}, path string) interface{} {
	if path == "" {
		return m
	}
	var cur interface{} = m
	for _, part := range strings.Split(path, ".") {
		mm, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = mm[part]
	}
	return cur
}

// asFilter accepts both filter.Filter values (as built by the transformer)
// and plain maps (as read back from JSON).
func asFilter(v interface{}) (filter.Filter, error) {
	switch t := v.(type) {
	case filter.Filter:
		return t, nil
	case map[string]interface{}:
		return filter.Filter(t), nil
	default:
		return nil, fmt.Errorf("expected a filter mapping, got %T", v)
	}
}

// matchFilter evaluates a query-builder-dialect filter against an entity.
// Multiple keys in one mapping are conjunctive.
func matchFilter(e *storage.Entity, f filter.Filter) (bool, error) {
	for key, val := range f {
		switch key {
		case "and", "or", "!and":
			subs, ok := val.([]interface{})
			if !ok {
				return false, fmt.Errorf("%q expects a list, got %T", key, val)
			}
			ok, err := matchBoolean(e, key, subs)
			if err != nil || !ok {
				return false, err
			}
		default:
			ops, err := asFilter(val)
			if err != nil {
				return false, fmt.Errorf("field %s: %v", key, err)
			}
			ok, err := evalOps(e, key, ops)
			if err != nil || !ok {
				return false, err
			}
		}
	}
	return true, nil
}

func matchBoolean(e *storage.Entity, key string, subs []interface{}) (bool, error) {
	anyMatched := false
	allMatched := true
	for _, sub := range subs {
		sf, err := asFilter(sub)
		if err != nil {
			return false, err
		}
		ok, err := matchFilter(e, sf)
		if err != nil {
			return false, err
		}
		if ok {
			anyMatched = true
		} else {
			allMatched = false
		}
	}
	switch key {
	case "and":
		return allMatched, nil
	case "or":
		return anyMatched, nil
	default: // "!and": none of the clauses hold
		return !anyMatched, nil
	}
}

// evalOps applies an operator mapping to one field; multiple operators are
// conjunctive.
func evalOps(e *storage.Entity, field string, ops filter.Filter) (bool, error) {
	value := resolve(e, field)
	for op, operand := range ops {
		ok, err := evalOp(e, field, value, op, operand)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

func evalOp(e *storage.Entity, field string, value interface{}, op string, operand interface{}) (bool, error) {
	switch op {
	case "and", "or", "!and":
		// Operator-level boolean: each element is another operator mapping
		// applied to the same field.
		subs, ok := operand.([]interface{})
		if !ok {
			return false, fmt.Errorf("field %s: %q expects a list", field, op)
		}
		anyMatched := false
		allMatched := true
		for _, sub := range subs {
			sops, err := asFilter(sub)
			if err != nil {
				return false, err
			}
			ok, err := evalOps(e, field, sops)
			if err != nil {
				return false, err
			}
			if ok {
				anyMatched = true
			} else {
				allMatched = false
			}
		}
		switch op {
		case "and":
			return allMatched, nil
		case "or":
			return anyMatched, nil
		default:
			return !anyMatched, nil
		}
	case "==":
		return valueEqual(value, operand), nil
	case "!==":
		return !valueEqual(value, operand), nil
	case "<", "<=", ">", ">=":
		if value == nil {
			return false, nil
		}
		c, err := compareValues(value, operand)
		if err != nil {
			return false, fmt.Errorf("field %s: %v", field, err)
		}
		switch op {
		case "<":
			return c < 0, nil
		case "<=":
			return c <= 0, nil
		case ">":
			return c > 0, nil
		default:
			return c >= 0, nil
		}
	case "like":
		s, ok := value.(string)
		if !ok {
			return false, nil
		}
		pattern, ok := operand.(string)
		if !ok {
			return false, fmt.Errorf("field %s: like expects a string pattern", field)
		}
		return likeMatch(pattern, s), nil
	case "contains":
		list, ok := asList(value)
		if !ok {
			return false, nil
		}
		wanted, ok := asList(operand)
		if !ok {
			return false, fmt.Errorf("field %s: contains expects a list", field)
		}
		for _, w := range wanted {
			if !listHas(list, w) {
				return false, nil
			}
		}
		return true, nil
	case "shorter", "longer", "of_length":
		list, ok := asList(value)
		if !ok {
			return false, nil
		}
		n, ok := asInt(operand)
		if !ok {
			return false, fmt.Errorf("field %s: %s expects an integer", field, op)
		}
		switch op {
		case "shorter":
			return int64(len(list)) < n, nil
		case "longer":
			return int64(len(list)) > n, nil
		default:
			return int64(len(list)) == n, nil
		}
	case "has_key", "!has_key":
		key, ok := operand.(string)
		if !ok {
			return false, fmt.Errorf("field %s: %s expects a string key", field, op)
		}
		m, isMap := value.(map[string]interface{})
		present := false
		if isMap {
			_, present = m[key]
		}
		if op == "has_key" {
			return present, nil
		}
		return !present, nil
	default:
		return false, fmt.Errorf("field %s: unknown operator %q", field, op)
	}
}

var likeCache sync.Map

// likeMatch evaluates a SQL-style pattern: % matches any run, _ any single
// character, everything else is literal.
func likeMatch(pattern, s string) bool {
	if re, ok := likeCache.Load(pattern); ok {
		return re.(*regexp.Regexp).MatchString(s)
	}
	var b strings.Builder
	b.WriteString("^")
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	b.WriteString("$")
	re := regexp.MustCompile(b.String())
	likeCache.Store(pattern, re)
	return re.MatchString(s)
}

func asList(v interface{}) ([]interface{}, bool) {
	switch t := v.(type) {
	case []interface{}:
		return t, true
	case []string:
		out := make([]interface{}, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out, true
	default:
		return nil, false
	}
}

func listHas(list []interface{}, v interface{}) bool {
	for _, e := range list {
		if valueEqual(e, v) {
			return true
		}
	}
	return false
}

func asFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}

func asInt(v interface{}) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case float64:
		return int64(t), true
	default:
		return 0, false
	}
}

// valueEqual compares with numeric coercion: loaded JSON holds float64
// where filters hold int64.
func valueEqual(a, b interface{}) bool {
	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)
		return ok && af == bf
	}
	if at, ok := a.(time.Time); ok {
		bt, err := asTime(b)
		return err == nil && at.Equal(bt)
	}
	return reflect.DeepEqual(a, b)
}

func asTime(v interface{}) (time.Time, error) {
	switch t := v.(type) {
	case time.Time:
		return t, nil
	case string:
		return time.Parse(time.RFC3339, t)
	default:
		return time.Time{}, fmt.Errorf("cannot interpret %T as a timestamp", v)
	}
}

func compareValues(a, b interface{}) (int, error) {
	if af, ok := asFloat(a); ok {
		bf, ok := asFloat(b)
		if !ok {
			return 0, fmt.Errorf("cannot compare number with %T", b)
		}
		switch {
		case af < bf:
			return -1, nil
		case af > bf:
			return 1, nil
		default:
			return 0, nil
		}
	}
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		if !ok {
			return 0, fmt.Errorf("cannot compare string with %T", b)
		}
		return strings.Compare(as, bs), nil
	}
	if at, ok := a.(time.Time); ok {
		bt, err := asTime(b)
		if err != nil {
			return 0, err
		}
		switch {
		case at.Before(bt):
			return -1, nil
		case at.After(bt):
			return 1, nil
		default:
			return 0, nil
		}
	}
	return 0, fmt.Errorf("cannot order values of type %T", a)
}

// sortEntities orders entities in place per the sort specification. Nil
// values sort before everything else.
func sortEntities(entities []*storage.Entity, specs []storage.OrderSpec) error {
	var sortErr error
	sort.SliceStable(entities, func(i, j int) bool {
		for _, spec := range specs {
			a := resolve(entities[i], spec.Field)
			b := resolve(entities[j], spec.Field)
			c, err := compareCast(a, b, spec.Cast)
			if err != nil && sortErr == nil {
				sortErr = fmt.Errorf("sorting on %s: %v", spec.Field, err)
				return false
			}
			if c == 0 {
				continue
			}
			if spec.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return sortErr
}

func compareCast(a, b interface{}, cast storage.CastTag) (int, error) {
	if a == nil && b == nil {
		return 0, nil
	}
	if a == nil {
		return -1, nil
	}
	if b == nil {
		return 1, nil
	}
	switch cast {
	case storage.CastBool:
		ab, aok := a.(bool)
		bb, bok := b.(bool)
		if !aok || !bok {
			return 0, fmt.Errorf("cannot cast %T, %T to bool", a, b)
		}
		switch {
		case ab == bb:
			return 0, nil
		case bb:
			return -1, nil
		default:
			return 1, nil
		}
	case storage.CastDatetime:
		at, err := asTime(a)
		if err != nil {
			return 0, err
		}
		return compareValues(at, b)
	default:
		return compareValues(a, b)
	}
}
