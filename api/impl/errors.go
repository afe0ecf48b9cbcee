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
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/aiidateam/optimade-go/entries"
	"github.com/aiidateam/optimade-go/filter"
	"github.com/aiidateam/optimade-go/translator"
	"github.com/aiidateam/optimade-go/util/web"
)

// writeError maps internal error kinds onto the OPTIMADE error format.
// Unsupported filter constructs are 501, client mistakes 400/403, cache
// invariant violations and everything unrecognized 500.
func writeError(w http.ResponseWriter, err error) {
	switch e := err.(type) {
	case entries.ValidationErrors:
		web.WriteErrors(w, e...)
	case *web.APIError:
		e.HTTPWrite(w)
	case *filter.UnsupportedError:
		web.WriteErrors(w, web.NewError(http.StatusNotImplemented,
			"NotImplemented", "%v", e))
	case *translator.MissingDeriverError:
		web.WriteErrors(w, web.NewError(http.StatusNotImplemented,
			"NotImplemented", "%v", e))
	case *entries.CausationError:
		log.WithError(e).Error("Query cache read before write")
		web.WriteErrors(w, web.NewError(http.StatusInternalServerError,
			"InternalServerError", "%v", e))
	default:
		log.WithError(err).Error("Request failed")
		web.WriteErrors(w, web.NewError(http.StatusInternalServerError,
			"InternalServerError", "Internal server error"))
	}
}
