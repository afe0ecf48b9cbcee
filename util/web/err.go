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

// Package web contains helpers for turning errors into HTTP responses. The
// OPTIMADE specification wants structured errors on the wire, each carrying a
// status code, a title naming the error kind, and a human readable detail
// string. Multiple simultaneous validation failures are reported as a list.
package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	log "github.com/sirupsen/logrus"
)

// APIError is an error destined to become an HTTP response. Construct one
// with NewError.
type APIError struct {
	statusCode int
	title      string
	detail     string
}

// NewError constructs an APIError with the supplied HTTP status code and
// title, formatting the supplied detail message and arguments.
func NewError(statusCode int, title, formatMsg string, formatParams ...interface{}) *APIError {
	return &APIError{
		statusCode: statusCode,
		title:      title,
		detail:     fmt.Sprintf(formatMsg, formatParams...),
	}
}

// StatusCode returns the HTTP status code this error should be reported with.
func (a *APIError) StatusCode() int {
	return a.statusCode
}

// Title returns the error-kind name.
func (a *APIError) Title() string {
	return a.title
}

// Error implements the standard error interface.
func (a *APIError) Error() string {
	return a.detail
}

// HTTPWrite can be called to return this error as an HTTP response.
func (a *APIError) HTTPWrite(w http.ResponseWriter) {
	WriteErrors(w, a)
}

// HTTPWriter is implemented by errors that know how to write themselves as an
// HTTP response.
type HTTPWriter interface {
	HTTPWrite(w http.ResponseWriter)
}

var _ HTTPWriter = &APIError{}

// wireError is the shape of a single error object on the wire. The status
// code is serialized as a string, as the OPTIMADE spec requires.
type wireError struct {
	Status string `json:"status"`
	Title  string `json:"title"`
	Detail string `json:"detail"`
}

// WriteErrors writes the supplied errors as a single JSON error response.
// The response status code is the code of the first error.
func WriteErrors(w http.ResponseWriter, errs ...*APIError) {
	if len(errs) == 0 {
		panic("web.WriteErrors called with no errors")
	}
	body := struct {
		Errors []wireError `json:"errors"`
	}{}
	for _, e := range errs {
		body.Errors = append(body.Errors, wireError{
			Status: strconv.Itoa(e.statusCode),
			Title:  e.title,
			Detail: e.detail,
		})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(errs[0].statusCode)
	if err := json.NewEncoder(w).Encode(&body); err != nil {
		log.WithError(err).Warn("Unable to write error response")
	}
}
