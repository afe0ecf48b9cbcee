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

package impl

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aiidateam/optimade-go/config"
	"github.com/aiidateam/optimade-go/entries"
	"github.com/aiidateam/optimade-go/mapper"
	"github.com/aiidateam/optimade-go/storage"
	"github.com/aiidateam/optimade-go/storage/memstore"
	"github.com/aiidateam/optimade-go/translator"
)

const structureType = "data.core.structure.StructureData."

func fixture(pk int64) *storage.Entity {
	return &storage.Entity{
		PK:       pk,
		UUID:     "u",
		NodeType: structureType,
		Attrs: map[string]interface{}{
			"cell": []interface{}{
				[]interface{}{1.0, 0.0, 0.0},
				[]interface{}{0.0, 1.0, 0.0},
				[]interface{}{0.0, 0.0, 1.0},
			},
			"pbc1": true, "pbc2": true, "pbc3": true,
			"kinds": []interface{}{
				map[string]interface{}{"name": "Si", "symbols": []interface{}{"Si"}, "weights": []interface{}{1.0}},
			},
			"sites": []interface{}{
				map[string]interface{}{"kind_name": "Si", "position": []interface{}{0.0, 0.0, 0.0}},
			},
		},
		Extras: map[string]interface{}{},
	}
}

func testServer(t *testing.T) *Server {
	t.Helper()
	store := memstore.New()
	for pk := int64(1); pk <= 3; pk++ {
		store.Put(fixture(pk))
	}
	m := mapper.NewStructures("_aiida_")
	collection := entries.NewCollection(store, m, translator.New(store, m), entries.Config{
		ResourceType:     "structures",
		NodeType:         structureType,
		DefaultPageLimit: 2,
		MaxPageLimit:     10,
	})
	return New(&config.Adapter{ListenAddress: ":0"}, collection)
}

func get(t *testing.T, s *Server, url string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	w := httptest.NewRecorder()
	s.http.Handler.ServeHTTP(w, req)
	return w
}

func TestListStructures(t *testing.T) {
	s := testServer(t)
	w := get(t, s, "/v1/structures")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []struct {
			ID         string                 `json:"id"`
			Type       string                 `json:"type"`
			Attributes map[string]interface{} `json:"attributes"`
		} `json:"data"`
		Meta struct {
			DataReturned      int64 `json:"data_returned"`
			DataAvailable     int64 `json:"data_available"`
			MoreDataAvailable bool  `json:"more_data_available"`
		} `json:"meta"`
		Links struct {
			Next *string `json:"next"`
		} `json:"links"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(3), resp.Meta.DataReturned)
	assert.Equal(t, int64(3), resp.Meta.DataAvailable)
	assert.True(t, resp.Meta.MoreDataAvailable)
	require.Len(t, resp.Data, 2)
	assert.Equal(t, "1", resp.Data[0].ID)
	assert.Equal(t, "structures", resp.Data[0].Type)
	assert.Equal(t, "Si", resp.Data[0].Attributes["chemical_formula_reduced"])
	require.NotNil(t, resp.Links.Next)
	assert.Contains(t, *resp.Links.Next, "page_offset=2")

	// Follow the next link; the final page has no next.
	w = get(t, s, *resp.Links.Next)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 1)
	assert.False(t, resp.Meta.MoreDataAvailable)
	assert.Nil(t, resp.Links.Next)
}

func TestGetStructure(t *testing.T) {
	s := testServer(t)
	w := get(t, s, "/v1/structures/2")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data *struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Data)
	assert.Equal(t, "2", resp.Data.ID)

	w = get(t, s, "/v1/structures/99")
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Nil(t, resp.Data)
}

type wireErrors struct {
	Errors []struct {
		Status string `json:"status"`
		Title  string `json:"title"`
		Detail string `json:"detail"`
	} `json:"errors"`
}

func TestErrorMapping(t *testing.T) {
	s := testServer(t)

	w := get(t, s, "/v1/structures?filter=elements+HAS+ONLY+%22Si%22")
	assert.Equal(t, http.StatusNotImplemented, w.Code)
	var errs wireErrors
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errs))
	require.Len(t, errs.Errors, 1)
	assert.Equal(t, "501", errs.Errors[0].Status)
	assert.Equal(t, "NotImplemented", errs.Errors[0].Title)

	w = get(t, s, "/v1/structures?page_limit=11")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = get(t, s, "/v1/structures?filter=nsites+%3E")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = get(t, s, "/v1/structures?response_format=xml&sort=elements")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	errs = wireErrors{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errs))
	assert.Len(t, errs.Errors, 2)
}

func TestInfo(t *testing.T) {
	s := testServer(t)
	w := get(t, s, "/v1/info")
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Attributes map[string]interface{} `json:"attributes"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, float64(3), resp.Data.Attributes["data_available"])
}
