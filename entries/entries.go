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

// Package entries is the entry-collection query engine: it turns OPTIMADE
// query parameters into backend queries, guarantees derived attributes
// exist before they are filtered or sorted on, memoizes counts, and
// reconstructs result rows into OPTIMADE resources.
package entries

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/aiidateam/optimade-go/api"
	"github.com/aiidateam/optimade-go/filter"
	"github.com/aiidateam/optimade-go/mapper"
	"github.com/aiidateam/optimade-go/storage"
	"github.com/aiidateam/optimade-go/translator"
	"github.com/aiidateam/optimade-go/util/tracing"
	"github.com/aiidateam/optimade-go/util/web"
)

// Config sets up a Collection.
type Config struct {
	// ResourceType is the OPTIMADE resource type, e.g. "structures".
	ResourceType string
	// NodeType is the backend entity-type discriminator prefix.
	NodeType string
	// DefaultPageLimit is used when page_limit is absent or zero;
	// MaxPageLimit is the hard ceiling a client may request.
	DefaultPageLimit int
	MaxPageLimit     int
	// Metrics enables instrumentation when non-nil.
	Metrics *Metrics
}

// FindResult is what Find hands back to the routing layer.
type FindResult struct {
	Results []api.EntryResource
	// DataReturned counts all matches of the filter, ignoring pagination.
	DataReturned      int64
	MoreDataAvailable bool
	// DataAvailable counts every entry in the collection.
	DataAvailable int64
	// OmittedFields lists attributes available but not requested.
	OmittedFields []string
}

// Collection serves one OPTIMADE entry type. Instances are shared across
// requests; the mutex serializes every read-modify-write of the query
// cache, so overlapping requests see consistent cache state.
type Collection struct {
	store      storage.Store
	mapper     *mapper.Structures
	translator *translator.Translator

	resourceType string
	nodeType     string
	defaultLimit int
	maxLimit     int
	metrics      *Metrics

	lock  sync.Mutex
	cache queryCache
}

// NewCollection builds a collection over the given store.
func NewCollection(store storage.Store, m *mapper.Structures, tr *translator.Translator, cfg Config) *Collection {
	if cfg.DefaultPageLimit <= 0 {
		cfg.DefaultPageLimit = 20
	}
	if cfg.MaxPageLimit <= 0 {
		cfg.MaxPageLimit = 500
	}
	return &Collection{
		store:        store,
		mapper:       m,
		translator:   tr,
		resourceType: cfg.ResourceType,
		nodeType:     cfg.NodeType,
		defaultLimit: cfg.DefaultPageLimit,
		maxLimit:     cfg.MaxPageLimit,
		metrics:      cfg.Metrics,
	}
}

// ResourceType returns the OPTIMADE resource type this collection serves.
func (c *Collection) ResourceType() string {
	return c.resourceType
}

// Find answers a listing request.
func (c *Collection) Find(ctx context.Context, params QueryParams) (*FindResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "entries.Find")
	defer span.Finish()
	if c.metrics != nil {
		tracing.UpdateMetric(span, c.metrics.findDuration)
	}

	parseStart := time.Now()
	crit, err := c.parseCriteria(params)
	c.metrics.observe(stageParse, time.Since(parseStart).Seconds())
	if err != nil {
		return nil, err
	}
	span.SetTag("filter", params.Filter)
	span.SetTag("limit", crit.limit)
	span.SetTag("offset", crit.offset)

	c.lock.Lock()
	defer c.lock.Unlock()
	return c.findLocked(ctx, crit)
}

// FindOne answers a single-entry request: exactly one or zero results is
// the only valid outcome, anything else is an integrity error. A zero
// outcome returns an empty result set, not an error.
func (c *Collection) FindOne(ctx context.Context, id string, params QueryParams) (*FindResult, error) {
	span, ctx := opentracing.StartSpanFromContext(ctx, "entries.FindOne")
	defer span.Finish()
	span.SetTag("id", id)

	params.Filter = ""
	params.Sort = ""
	params.PageLimit = ""
	params.PageOffset = ""
	crit, err := c.parseCriteria(params)
	if err != nil {
		return nil, err
	}
	pk, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return nil, web.NewError(http.StatusNotFound, "NotFound",
			"No entry %s in %s", id, c.resourceType)
	}
	crit.filter = filter.Filter{"id": filter.Filter{"==": pk}}
	crit.limit = -1
	crit.offset = 0

	c.lock.Lock()
	defer c.lock.Unlock()
	result, err := c.findLocked(ctx, crit)
	if err != nil {
		return nil, err
	}
	if len(result.Results) > 1 {
		return nil, web.NewError(http.StatusNotFound, "NotFound",
			"Expected a single %s entry for ID %s, found %d",
			c.resourceType, id, len(result.Results))
	}
	return result, nil
}

// findLocked runs the query pipeline. Caller holds the collection lock.
func (c *Collection) findLocked(ctx context.Context, crit *criteria) (*FindResult, error) {
	if err := c.ensureDataAvailable(ctx); err != nil {
		return nil, err
	}

	key := filterKey(crit.filter)
	if !c.cache.haveLatestFilter || key != c.cache.latestFilterKey {
		c.cache.latestFilterKey = key
		c.cache.haveLatestFilter = true
		c.cache.checkedExtrasFields = map[string]bool{}
	}

	if err := c.ensureDerivedFields(ctx, crit); err != nil {
		return nil, err
	}

	n, err := c.countWithCache(ctx, crit.filter, key, crit.limit, crit.offset)
	if err != nil {
		return nil, err
	}
	c.cache.dataReturned = &n

	fetchStart := time.Now()
	aliased := make([]string, len(crit.fields))
	for i, f := range crit.fields {
		aliased[i] = c.mapper.AliasFor(f)
	}
	q := c.store.Query().
		WithType(c.nodeType).
		WithFilter(crit.filter).
		Project(aliased).
		OrderBy(crit.order).
		Offset(crit.offset)
	if crit.limit >= 0 {
		q = q.Limit(crit.limit)
	}
	rows, err := q.Rows(ctx)
	c.metrics.observe(stageFetch, time.Since(fetchStart).Seconds())
	if err != nil {
		return nil, err
	}

	results := make([]api.EntryResource, 0, len(rows))
	for _, row := range rows {
		resource, err := c.buildResource(crit.fields, row)
		if err != nil {
			return nil, err
		}
		results = append(results, resource)
	}

	dataReturned, err := c.dataReturnedValue()
	if err != nil {
		return nil, err
	}
	dataAvailable, err := c.dataAvailableValue()
	if err != nil {
		return nil, err
	}
	return &FindResult{
		Results:           results,
		DataReturned:      dataReturned,
		MoreDataAvailable: int64(len(results)) < dataReturned-int64(crit.offset),
		DataAvailable:     dataAvailable,
		OmittedFields:     crit.omitted,
	}, nil
}

// ensureDataAvailable counts the whole collection once per collection
// lifetime. Caller holds the lock.
func (c *Collection) ensureDataAvailable(ctx context.Context) error {
	if c.cache.dataAvailable != nil {
		return nil
	}
	countStart := time.Now()
	n, err := c.store.Query().WithType(c.nodeType).Count(ctx)
	c.metrics.observe(stageCount, time.Since(countStart).Seconds())
	if err != nil {
		return err
	}
	c.cache.dataAvailable = &n
	return nil
}

// DataAvailable returns the memoized collection size, counting on first
// use.
func (c *Collection) DataAvailable(ctx context.Context) (int64, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if err := c.ensureDataAvailable(ctx); err != nil {
		return 0, err
	}
	return c.dataAvailableValue()
}

func (c *Collection) dataAvailableValue() (int64, error) {
	if c.cache.dataAvailable == nil {
		return 0, &CausationError{What: "data_available"}
	}
	return *c.cache.dataAvailable, nil
}

func (c *Collection) dataReturnedValue() (int64, error) {
	if c.cache.dataReturned == nil {
		return 0, &CausationError{What: "data_returned"}
	}
	return *c.cache.dataReturned, nil
}

// countWithCache memoizes the filtered count. The cached value is reused
// only when filter fingerprint, limit and offset all match the previous
// call. Caller holds the lock.
func (c *Collection) countWithCache(ctx context.Context, f filter.Filter, key uint64, limit, offset int) (int64, error) {
	if c.cache.count.matches(key, limit, offset) {
		c.metrics.hit()
		return c.cache.count.count, nil
	}
	c.metrics.miss()
	countStart := time.Now()
	n, err := c.store.Query().WithType(c.nodeType).WithFilter(f).Count(ctx)
	c.metrics.observe(stageCount, time.Since(countStart).Seconds())
	if err != nil {
		return 0, err
	}
	c.cache.count = &countEntry{count: n, filterKey: key, limit: limit, offset: offset}
	return n, nil
}

// ensureDerivedFields makes sure every derived attribute the request
// filters, sorts or projects on exists in the extras of all matching
// entities, computing the missing ones in bulk. Fields already verified
// for the active filter are skipped. Caller holds the lock.
func (c *Collection) ensureDerivedFields(ctx context.Context, crit *criteria) error {
	var unchecked []string
	seen := map[string]bool{}
	for _, group := range [][]string{crit.filterFields, crit.sortFields, crit.fields} {
		for _, f := range group {
			if seen[f] || !c.mapper.IsDerived(f) || c.cache.checkedExtrasFields[f] {
				continue
			}
			seen[f] = true
			unchecked = append(unchecked, f)
		}
	}
	if len(unchecked) == 0 {
		return nil
	}

	calcStart := time.Now()
	defer func() {
		c.metrics.observe(stageCalculate, time.Since(calcStart).Seconds())
	}()

	// Entities missing the whole namespace or any one of the fields.
	namespace := strings.TrimSuffix(mapper.ExtrasPrefix, ".")
	missing := []interface{}{
		filter.Filter{"extras": filter.Filter{"!has_key": translator.Namespace}},
	}
	for _, f := range unchecked {
		missing = append(missing, filter.Filter{namespace: filter.Filter{"!has_key": f}})
	}
	rows, err := c.store.Query().
		WithType(c.nodeType).
		WithFilter(filter.Filter{"or": missing}).
		Project([]string{"id"}).
		Rows(ctx)
	if err != nil {
		return err
	}
	pks := make([]int64, 0, len(rows))
	for _, row := range rows {
		pk, ok := row[0].(int64)
		if !ok {
			continue
		}
		pks = append(pks, pk)
	}
	if err := c.translator.CalculateMany(ctx, pks, unchecked); err != nil {
		return err
	}
	for _, f := range unchecked {
		c.cache.checkedExtrasFields[f] = true
	}
	return nil
}

// buildResource reconstructs one OPTIMADE resource from a projected row.
func (c *Collection) buildResource(fields []string, row []interface{}) (api.EntryResource, error) {
	attrs, err := c.mapper.MapBack(fields, row)
	if err != nil {
		return api.EntryResource{}, err
	}
	var id string
	switch v := attrs["id"].(type) {
	case int64:
		id = strconv.FormatInt(v, 10)
	case float64:
		id = strconv.FormatInt(int64(v), 10)
	case string:
		id = v
	}
	delete(attrs, "id")
	return api.EntryResource{
		ID:         id,
		Type:       c.resourceType,
		Attributes: attrs,
	}, nil
}
