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
	"encoding/json"
	"fmt"

	"github.com/cespare/xxhash"

	"github.com/aiidateam/optimade-go/filter"
)

// discriminatorField is the entity-type discriminator key. It is excluded
// by name when comparing filters for count-cache equality: the discriminator
// is injected on every query, so its presence carries no information about
// what the client asked for.
const discriminatorField = "node_type"

// CausationError reports a read of data_available or data_returned before
// anything set it. It is distinct from a legitimate zero so callers cannot
// mistake an uninitialized cache for an empty result set.
type CausationError struct {
	What string
}

func (e *CausationError) Error() string {
	return fmt.Sprintf("%s was read before being set", e.What)
}

// countEntry is the memoized result of the last count query.
type countEntry struct {
	count     int64
	filterKey uint64
	limit     int
	offset    int
}

// queryCache is the per-collection query cache. The owning collection's
// mutex guards all access; nothing here locks.
type queryCache struct {
	dataAvailable *int64
	dataReturned  *int64
	count         *countEntry

	// latestFilterKey identifies the active filter; checkedExtrasFields
	// records which derived fields have been verified present for it and is
	// reset whenever the filter changes.
	latestFilterKey     uint64
	haveLatestFilter    bool
	checkedExtrasFields map[string]bool
}

// filterKey fingerprints a backend filter for cache-equality checks. The
// discriminator key is stripped before hashing, and map keys are sorted by
// the JSON encoder, so two semantically equal filters collide reliably.
func filterKey(f filter.Filter) uint64 {
	if f != nil {
		if _, ok := f[discriminatorField]; ok {
			stripped := make(filter.Filter, len(f))
			for k, v := range f {
				if k != discriminatorField {
					stripped[k] = v
				}
			}
			f = stripped
		}
	}
	data, err := json.Marshal(f)
	if err != nil {
		// Filters are built from JSON-safe values; an unmarshalable one is
		// a bug upstream. Fall back to never matching the cache.
		return 0
	}
	return xxhash.Sum64(data)
}

// matches reports whether a cached count can serve a new request. Offsets
// were already normalized by the caller (absent and zero are the same).
func (e *countEntry) matches(key uint64, limit, offset int) bool {
	return e != nil && e.filterKey == key && e.limit == limit && e.offset == offset
}
