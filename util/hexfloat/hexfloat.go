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

// Package hexfloat encodes floats as hexadecimal string literals and decodes
// them back, bit for bit. Float-valued computed attributes are persisted into
// the backend's extras store through a JSON boundary; storing them as decimal
// text would drift on the compute -> persist -> reload cycle and break both
// equality-based filters and the "already computed" idempotence check.
package hexfloat

import (
	"fmt"
	"strconv"
)

// Encode returns v with every float replaced by its hexadecimal string form.
// Lists are encoded recursively, so nested float lists (lattice vectors, site
// positions) come out as nested string lists. Non-float scalars are returned
// unchanged.
func Encode(v interface{}) interface{} {
	switch t := v.(type) {
	case float64:
		return strconv.FormatFloat(t, 'x', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'x', -1, 64)
	case []float64:
		out := make([]interface{}, len(t))
		for i, f := range t {
			out[i] = Encode(f)
		}
		return out
	case [][]float64:
		out := make([]interface{}, len(t))
		for i, row := range t {
			out[i] = Encode(row)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = Encode(e)
		}
		return out
	default:
		return v
	}
}

// Decode is the inverse of Encode: every string in v is parsed back into a
// float64, recursing into lists. It fails if a string is not a valid float
// literal, so it must only be applied to values known to be float-valued.
func Decode(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case string:
		f, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return nil, fmt.Errorf("hexfloat: %q is not a float literal: %v", t, err)
		}
		return f, nil
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			d, err := Decode(e)
			if err != nil {
				return nil, err
			}
			out[i] = d
		}
		return out, nil
	case float64:
		// Already native, nothing to do. This happens when a value was
		// computed in-process and never went through the store.
		return t, nil
	default:
		return nil, fmt.Errorf("hexfloat: cannot decode %T value", v)
	}
}
