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

// Package parser parses OPTIMADE filter expressions into a parse tree. The
// grammar covers comparisons (property-first, constant-first and LENGTH
// predicates), IS KNOWN/UNKNOWN, the fuzzy string operators, the HAS set
// operators, zipped properties, and NOT/AND/OR boolean structure with
// standard precedence (AND binds tighter than OR, parentheses group).
package parser

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aiidateam/optimade-go/util/cmp"
	"github.com/sirupsen/logrus"
	"github.com/vektah/goparsify"
)

// MustParse parses an OPTIMADE filter string and panics if an error occurs.
// This is primarily meant for writing unit tests.
func MustParse(in string) *Expression {
	expr, err := Parse(in)
	if err != nil {
		panic(fmt.Sprintf("unable to parse filter: '%s': %v", strings.Replace(in, "\n", "\\n", -1), err))
	}
	return expr
}

// Parse parses a filter string and builds its parse tree. If the input
// cannot be fully parsed a *ParseError is returned that includes the
// position of where it parsed to, and what the problem is.
func Parse(in string) (*Expression, error) {
	state := goparsify.NewState(in)
	state.WS = goparsify.UnicodeWhitespace

	result := &goparsify.Result{}
	filterRoot(state, result)
	if state.Errored() {
		line, col := coordinates(in, state.Error.Pos())
		exp := strings.TrimPrefix(fmt.Sprintf("%q", expectedText(&state.Error)), `"`)
		exp = strings.TrimSuffix(exp, `"`)
		return nil, &ParseError{
			Input:   in,
			Offset:  state.Error.Pos(),
			Line:    line,
			Column:  col,
			Details: "expected " + exp,
		}
	}
	// consume tail whitespace and check for unparsed text
	state.WS(state)
	unparsed := state.Get()
	if unparsed != "" {
		line, col := coordinates(in, state.Pos)
		return nil, &ParseError{
			Input:   in,
			Offset:  state.Pos,
			Line:    line,
			Column:  col,
			Details: fmt.Sprintf("unparsed text: '%s'", strings.TrimRightFunc(unparsed, unicode.IsSpace)),
		}
	}
	expr, ok := result.Result.(*Expression)
	if !ok {
		return nil, fmt.Errorf("invalid result type: %T", result.Result)
	}
	return expr, nil
}

// ParseError captures detailed information about a parsing error, and where
// it occurred.
type ParseError struct {
	// The input string to the parser which resulted in this error.
	Input string
	// Offset is the byte offset into 'Input' at which the error occurred.
	Offset int
	// Line is the line number in 'Input' at which the error occurred.
	Line int
	// Column is the column (in runes) into the indicated Line that the
	// error occurred. Line & Column represent the same point in 'Input' as
	// 'Offset'.
	Column int
	// The specific parser error that occurred.
	Details string
}

func (p *ParseError) Error() string {
	return fmt.Sprintf("unable to parse filter: line %d column %d: %s",
		p.Line, p.Column, p.Details)
}

// coordinates returns the line & column of the supplied offset in the string
// 'input'. Offset is in bytes, the returned column value is in runes.
func coordinates(input string, atOffset int) (line, col int) {
	// Trim any trailing whitespace from the input, as most people wouldn't
	// consider it an expected place for an error.
	input = strings.TrimRightFunc(input, unicode.IsSpace)
	// Don't let atOffset be past the end of the input.
	atOffset = cmp.MinInt(atOffset, len(input))

	lines := strings.Split(input, "\n")
	current := 0
	line = 1
	for _, l := range lines {
		if current+len(l) >= atOffset {
			// offset is in bytes, but the reported column should be based
			// on runes.
			col = utf8.RuneCountInString(l[:atOffset-current]) + 1
			return line, col
		}
		line++
		current += len(l) + 1 // remember to consume the \n
	}
	panic(fmt.Sprintf("shouldn't get here. Input was '%s' atOffset: %d", input, atOffset))
}

// expectedText extracts from the supplied goparsify Error the expected text
// i.e. the error from an unmatched parser. This relies on the format of the
// error message generated by goparsify.
func expectedText(e *goparsify.Error) string {
	msg := e.Error()
	expectedIdx := strings.Index(msg, "expected")
	if expectedIdx == -1 {
		logrus.WithField("err", msg).
			Warn("Got goparsify error with missing 'expected' string")
		return msg
	}
	expected := msg[expectedIdx+len("expected")+1:]
	return expected
}
