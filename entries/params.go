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

package entries

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aiidateam/optimade-go/filter"
	"github.com/aiidateam/optimade-go/filter/parser"
	"github.com/aiidateam/optimade-go/mapper"
	"github.com/aiidateam/optimade-go/storage"
	"github.com/aiidateam/optimade-go/util/web"
)

// responseFormat is the only supported response_format value.
const responseFormat = "json"

// QueryParams are the raw OPTIMADE query parameters of one request.
type QueryParams struct {
	Filter         string
	ResponseFormat string
	ResponseFields string
	Sort           string
	PageLimit      string
	PageOffset     string
}

// ParamsFromValues extracts the OPTIMADE query parameters from a parsed
// query string.
func ParamsFromValues(v url.Values) QueryParams {
	return QueryParams{
		Filter:         v.Get("filter"),
		ResponseFormat: v.Get("response_format"),
		ResponseFields: v.Get("response_fields"),
		Sort:           v.Get("sort"),
		PageLimit:      v.Get("page_limit"),
		PageOffset:     v.Get("page_offset"),
	}
}

// ValidationErrors aggregates independent client-side validation failures
// so they can all be reported in one response.
type ValidationErrors []*web.APIError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// criteria is the fully parsed and validated backend query specification.
type criteria struct {
	filter       filter.Filter
	filterFields []string
	// fields is the canonical projection, requested fields unioned with the
	// mandatory ones, in registry order.
	fields []string
	// omitted lists attributes available but not requested.
	omitted []string
	order   []storage.OrderSpec
	// sortFields holds the canonical names sorted on, for the derived-field
	// availability check.
	sortFields []string
	limit      int
	offset     int
}

var kindCasts = map[mapper.Kind]storage.CastTag{
	mapper.KindString:   storage.CastText,
	mapper.KindInt:      storage.CastInt,
	mapper.KindFloat:    storage.CastFloat,
	mapper.KindBool:     storage.CastBool,
	mapper.KindDatetime: storage.CastDatetime,
}

// parseCriteria validates the query parameters against the collection's
// configuration. Filter problems surface immediately (parse errors and
// unsupported constructs have their own status codes); the remaining
// parameter validations are collected so a request with several mistakes
// reports them all at once.
func (c *Collection) parseCriteria(params QueryParams) (*criteria, error) {
	crit := &criteria{}

	if params.Filter != "" {
		expr, err := parser.Parse(params.Filter)
		if err != nil {
			return nil, web.NewError(http.StatusBadRequest, "BadRequest", "%v", err)
		}
		f, fields, err := filter.Transform(expr, filter.QueryBuilder{}, c.mapper)
		if err != nil {
			if _, ok := err.(*filter.UnsupportedError); ok {
				return nil, err
			}
			return nil, web.NewError(http.StatusBadRequest, "BadRequest", "%v", err)
		}
		crit.filter = f
		crit.filterFields = fields
	}

	var errs ValidationErrors

	if params.ResponseFormat != "" && params.ResponseFormat != responseFormat {
		errs = append(errs, web.NewError(http.StatusBadRequest, "BadRequest",
			"Response format %s is not supported, only %s is",
			params.ResponseFormat, responseFormat))
	}

	requested := map[string]bool{}
	if params.ResponseFields == "" {
		for _, f := range c.mapper.AllFields() {
			requested[f] = true
		}
	} else {
		for _, f := range strings.Split(params.ResponseFields, ",") {
			f = strings.TrimSpace(f)
			if _, ok := c.mapper.Attr(f); !ok {
				errs = append(errs, web.NewError(http.StatusBadRequest, "BadRequest",
					"Unknown response field %q", f))
				continue
			}
			requested[f] = true
		}
	}
	include := map[string]bool{}
	for f := range requested {
		include[f] = true
	}
	for _, f := range c.mapper.RequiredFields() {
		include[f] = true
	}
	for _, f := range c.mapper.AllFields() {
		if include[f] {
			crit.fields = append(crit.fields, f)
		}
		if !requested[f] {
			crit.omitted = append(crit.omitted, f)
		}
	}

	if params.Sort != "" {
		for _, part := range strings.Split(params.Sort, ",") {
			part = strings.TrimSpace(part)
			desc := strings.HasPrefix(part, "-")
			name := strings.TrimPrefix(part, "-")
			attr, ok := c.mapper.Attr(name)
			if !ok {
				errs = append(errs, web.NewError(http.StatusBadRequest, "BadRequest",
					"Cannot sort on unknown field %q", name))
				continue
			}
			cast, ok := kindCasts[attr.Kind]
			if !ok {
				// List-valued fields have no meaningful ordering; rejected
				// here, before anything reaches the backend.
				errs = append(errs, web.NewError(http.StatusBadRequest, "BadRequest",
					"Cannot sort on list-valued field %q", name))
				continue
			}
			crit.order = append(crit.order, storage.OrderSpec{
				Field: c.mapper.AliasFor(name),
				Desc:  desc,
				Cast:  cast,
			})
			crit.sortFields = append(crit.sortFields, name)
		}
	}

	crit.limit = c.defaultLimit
	if params.PageLimit != "" {
		n, err := strconv.Atoi(params.PageLimit)
		switch {
		case err != nil || n < 0:
			errs = append(errs, web.NewError(http.StatusBadRequest, "BadRequest",
				"Invalid page_limit %q", params.PageLimit))
		case n > c.maxLimit:
			errs = append(errs, web.NewError(http.StatusForbidden, "Forbidden",
				"Requested page_limit %d exceeds the maximum allowed %d", n, c.maxLimit))
		case n == 0:
			// An explicit zero historically means "use the default page
			// size", not "return nothing".
		default:
			crit.limit = n
		}
	}

	if params.PageOffset != "" {
		n, err := strconv.Atoi(params.PageOffset)
		if err != nil || n < 0 {
			errs = append(errs, web.NewError(http.StatusBadRequest, "BadRequest",
				"Invalid page_offset %q", params.PageOffset))
		} else {
			crit.offset = n
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return crit, nil
}
