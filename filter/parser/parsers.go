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
	"math"
	"strconv"

	"github.com/vektah/goparsify"
)

// repeatZeroOrMore matches zero or more parsers and returns the values as
// .Child[n]. An optional separator can be provided and that value will be
// consumed but not returned.
//
// This and repeatOneOrMore exist because the difference between Some & Many
// is not obvious from the name.
func repeatZeroOrMore(p goparsify.Parserish, sep ...goparsify.Parserish) goparsify.Parser {
	return goparsify.Some(p, sep...)
}

// repeatOneOrMore matches one or more parsers and returns the values as
// .Child[n]. An optional separator can be provided and that value will be
// consumed but not returned.
func repeatOneOrMore(p goparsify.Parserish, sep ...goparsify.Parserish) goparsify.Parser {
	return goparsify.Many(p, sep...)
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || c == '_'
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// scanIdentifier reads an OPTIMADE identifier ([a-z_][a-z_0-9]*) starting at
// pos. It returns the end position, or pos if there is no identifier here.
func scanIdentifier(in string, pos int) int {
	if pos >= len(in) || !isIdentStart(in[pos]) {
		return pos
	}
	end := pos + 1
	for end < len(in) && isIdentChar(in[end]) {
		end++
	}
	return end
}

// scanProperty reads a dotted property path starting at pos. It returns the
// path segments and the end position, or (nil, pos) if there is no property
// here. Dots bind tightly: no whitespace is allowed around them.
func scanProperty(in string, pos int) ([]string, int) {
	end := scanIdentifier(in, pos)
	if end == pos {
		return nil, pos
	}
	segs := []string{in[pos:end]}
	for end < len(in) && in[end] == '.' {
		next := scanIdentifier(in, end+1)
		if next == end+1 {
			// trailing dot is not part of the property
			break
		}
		segs = append(segs, in[end+1:next])
		end = next
	}
	return segs, end
}

// propertyRef parses a property or a ':'-zipped chain of properties. The
// result is a Property for the common single case, or a ZipProperty.
func propertyRef() goparsify.Parser {
	return goparsify.NewParser("property", func(ps *goparsify.State, node *goparsify.Result) {
		ps.WS(ps)
		start := ps.Pos
		segs, end := scanProperty(ps.Input, start)
		if segs == nil {
			ps.ErrorHere("property")
			return
		}
		props := []Property{Property(segs)}
		for end < len(ps.Input) && ps.Input[end] == ':' {
			more, next := scanProperty(ps.Input, end+1)
			if more == nil {
				ps.ErrorHere("property after ':'")
				return
			}
			props = append(props, Property(more))
			end = next
		}
		node.Token = ps.Input[start:end]
		if len(props) == 1 {
			node.Result = props[0]
		} else {
			node.Result = ZipProperty(props)
		}
		ps.Pos = end
	})
}

// comparisonOperator parses one of = != < <= > >= into its Token.
func comparisonOperator() goparsify.Parser {
	ops := []string{"<=", ">=", "!=", "<", ">", "="}
	return goparsify.NewParser("operator", func(ps *goparsify.State, node *goparsify.Result) {
		ps.WS(ps)
		in := ps.Get()
		for _, op := range ops {
			if len(in) >= len(op) && in[:len(op)] == op {
				node.Token = op
				ps.Advance(len(op))
				return
			}
		}
		ps.ErrorHere("one of = != < <= > >=")
	})
}

// maxExactInt is the largest float64 magnitude whose integral values are all
// exactly representable (2^53). Integral floats beyond it are kept as floats.
const maxExactInt = 1 << 53

// numberLiteral parses an OPTIMADE numeric literal:
//
//	[+-]? ( digits [. digits*] | . digits ) [ (e|E) [+-]? digits ]
//
// Plain integers produce an int64. Floats whose value is integral collapse
// to an int64 as well, so `.2E7` compares equal to `2000000` — the OPTIMADE
// grammar's numeric literals are values, not lexemes.
func numberLiteral() goparsify.Parser {
	return goparsify.NewParser("number", func(ps *goparsify.State, node *goparsify.Result) {
		ps.WS(ps)
		in := ps.Input
		pos := ps.Pos
		end := pos
		if end < len(in) && (in[end] == '+' || in[end] == '-') {
			end++
		}
		intDigits := end
		for end < len(in) && in[end] >= '0' && in[end] <= '9' {
			end++
		}
		hasIntDigits := end > intDigits
		isFloat := false
		if end < len(in) && in[end] == '.' {
			end++
			fracDigits := end
			for end < len(in) && in[end] >= '0' && in[end] <= '9' {
				end++
			}
			if !hasIntDigits && end == fracDigits {
				// a bare "." (or "+.") is not a number
				ps.ErrorHere("number")
				return
			}
			isFloat = true
		} else if !hasIntDigits {
			ps.ErrorHere("number")
			return
		}
		if end < len(in) && (in[end] == 'e' || in[end] == 'E') {
			expEnd := end + 1
			if expEnd < len(in) && (in[expEnd] == '+' || in[expEnd] == '-') {
				expEnd++
			}
			expDigits := expEnd
			for expEnd < len(in) && in[expEnd] >= '0' && in[expEnd] <= '9' {
				expEnd++
			}
			if expEnd > expDigits {
				end = expEnd
				isFloat = true
			}
		}
		text := in[pos:end]
		node.Token = text
		if !isFloat {
			if i, err := strconv.ParseInt(text, 10, 64); err == nil {
				node.Result = i
				ps.Pos = end
				return
			}
			// fall through to float on int64 overflow
		}
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			ps.ErrorHere("number")
			return
		}
		if f == math.Trunc(f) && math.Abs(f) < maxExactInt {
			node.Result = int64(f)
		} else {
			node.Result = f
		}
		ps.Pos = end
	})
}
