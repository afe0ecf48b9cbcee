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

// Package api holds the wire-level response model shared between the query
// engine and the HTTP server implementation in api/impl.
package api

// EntryResource is one OPTIMADE resource object: id, type and the mapping
// of canonical attribute name to value. Constructed fresh per query result
// row and never persisted as-is.
type EntryResource struct {
	ID         string                 `json:"id"`
	Type       string                 `json:"type"`
	Attributes map[string]interface{} `json:"attributes"`
}

// Meta is the response meta object.
type Meta struct {
	DataReturned      int64 `json:"data_returned"`
	DataAvailable     int64 `json:"data_available"`
	MoreDataAvailable bool  `json:"more_data_available"`
}

// Links carries the pagination links; Next is null on the last page.
type Links struct {
	Next *string `json:"next"`
}

// ListResponse is the envelope for a listing request.
type ListResponse struct {
	Data  []EntryResource `json:"data"`
	Meta  Meta            `json:"meta"`
	Links Links           `json:"links"`
}

// SingleResponse is the envelope for a single-entry request; Data is null
// when the entry does not exist.
type SingleResponse struct {
	Data *EntryResource `json:"data"`
	Meta Meta           `json:"meta"`
}

// InfoResponse describes the implementation for the /info endpoint.
type InfoResponse struct {
	Data InfoData `json:"data"`
}

// InfoData is the payload of InfoResponse.
type InfoData struct {
	Type       string                 `json:"type"`
	ID         string                 `json:"id"`
	Attributes map[string]interface{} `json:"attributes"`
}
