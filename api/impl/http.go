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

// Package impl implements the HTTP server for the OPTIMADE API: routing,
// the JSON:API-shaped response envelopes, pagination links and the mapping
// from internal errors onto the OPTIMADE error format.
package impl

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/aiidateam/optimade-go/api"
	"github.com/aiidateam/optimade-go/config"
	"github.com/aiidateam/optimade-go/entries"
)

// Server hosts the OPTIMADE endpoints.
type Server struct {
	http       *http.Server
	structures *entries.Collection
}

// New builds the server around the structures collection.
func New(cfg *config.Adapter, structures *entries.Collection) *Server {
	s := &Server{structures: structures}
	router := httprouter.New()
	router.GET("/v1/info", s.info)
	router.GET("/v1/structures", s.listStructures)
	router.GET("/v1/structures/:id", s.getStructure)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	s.http = &http.Server{
		Addr:    cfg.ListenAddress,
		Handler: router,
	}
	return s
}

// Run serves requests until the listener fails.
func (s *Server) Run() error {
	log.WithFields(log.Fields{"address": s.http.Addr}).Info("OPTIMADE API server starting")
	return s.http.ListenAndServe()
}

func (s *Server) listStructures(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	params := entries.ParamsFromValues(r.URL.Query())
	result, err := s.structures.Find(r.Context(), params)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := api.ListResponse{
		Data: result.Results,
		Meta: api.Meta{
			DataReturned:      result.DataReturned,
			DataAvailable:     result.DataAvailable,
			MoreDataAvailable: result.MoreDataAvailable,
		},
	}
	if result.MoreDataAvailable {
		resp.Links.Next = nextLink(r.URL, params, len(result.Results))
	}
	writeJSON(w, http.StatusOK, &resp)
}

func (s *Server) getStructure(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	params := entries.ParamsFromValues(r.URL.Query())
	result, err := s.structures.FindOne(r.Context(), ps.ByName("id"), params)
	if err != nil {
		writeError(w, err)
		return
	}
	resp := api.SingleResponse{
		Meta: api.Meta{
			DataReturned:      result.DataReturned,
			DataAvailable:     result.DataAvailable,
			MoreDataAvailable: false,
		},
	}
	if len(result.Results) == 1 {
		resp.Data = &result.Results[0]
	}
	writeJSON(w, http.StatusOK, &resp)
}

func (s *Server) info(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	available, err := s.structures.DataAvailable(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	resp := api.InfoResponse{
		Data: api.InfoData{
			Type: "info",
			ID:   "/",
			Attributes: map[string]interface{}{
				"api_version":        "1.0.0",
				"available_api_versions": []map[string]string{
					{"version": "1.0.0", "url": "/v1/"},
				},
				"entry_types_by_format": map[string][]string{
					"json": {s.structures.ResourceType()},
				},
				"available_endpoints": []string{"info", s.structures.ResourceType()},
				"is_index":            false,
				"data_available":      available,
			},
		},
	}
	writeJSON(w, http.StatusOK, &resp)
}

// nextLink rebuilds the request URL with page_offset advanced past the
// current page.
func nextLink(u *url.URL, params entries.QueryParams, pageSize int) *string {
	offset := 0
	if params.PageOffset != "" {
		if n, err := strconv.Atoi(params.PageOffset); err == nil {
			offset = n
		}
	}
	next := *u
	q := next.Query()
	q.Set("page_offset", strconv.Itoa(offset+pageSize))
	next.RawQuery = q.Encode()
	link := next.String()
	return &link
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.WithError(err).Warn("Unable to write response body")
	}
}
