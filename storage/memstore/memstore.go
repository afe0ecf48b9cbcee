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

// Package memstore is the bundled in-memory entity store. It keeps entities
// in a B-tree keyed by PK for deterministic ordered scans, evaluates
// query-builder-dialect filters directly against entity fields, and can
// load and persist its contents as a JSON file so the CLI tooling and the
// dev server operate on real data.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/google/btree"

	"github.com/aiidateam/optimade-go/filter"
	"github.com/aiidateam/optimade-go/storage"
)

type item struct {
	entity *storage.Entity
}

func (a item) Less(b btree.Item) bool {
	return a.entity.PK < b.(item).entity.PK
}

// Store is an in-memory storage.Store.
type Store struct {
	lock sync.RWMutex
	tree *btree.BTree
	path string
}

var _ storage.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{tree: btree.New(16)}
}

// Load reads a JSON entity file written by Save (a top-level list of
// entities). The store remembers the path so Save can write back in place.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening entity file: %v", err)
	}
	var entities []*storage.Entity
	if err := json.Unmarshal(data, &entities); err != nil {
		return nil, fmt.Errorf("parsing entity file %s: %v", path, err)
	}
	s := New()
	s.path = path
	for _, e := range entities {
		s.Put(e)
	}
	return s, nil
}

// Save writes the store's contents back to the file it was loaded from.
func (s *Store) Save() error {
	if s.path == "" {
		return fmt.Errorf("store was not loaded from a file")
	}
	return s.SaveTo(s.path)
}

// SaveTo writes all entities as a JSON list.
func (s *Store) SaveTo(path string) error {
	s.lock.RLock()
	entities := s.all()
	s.lock.RUnlock()
	data, err := json.MarshalIndent(entities, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding entities: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing entity file: %v", err)
	}
	return nil
}

// Put inserts or replaces an entity.
func (s *Store) Put(e *storage.Entity) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.tree.ReplaceOrInsert(item{entity: e})
}

// Len returns the number of stored entities.
func (s *Store) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.tree.Len()
}

// PKs returns every entity PK in ascending order.
func (s *Store) PKs() []int64 {
	s.lock.RLock()
	defer s.lock.RUnlock()
	out := make([]int64, 0, s.tree.Len())
	s.tree.Ascend(func(i btree.Item) bool {
		out = append(out, i.(item).entity.PK)
		return true
	})
	return out
}

// all returns entities in PK order. Caller holds the lock.
func (s *Store) all() []*storage.Entity {
	out := make([]*storage.Entity, 0, s.tree.Len())
	s.tree.Ascend(func(i btree.Item) bool {
		out = append(out, i.(item).entity)
		return true
	})
	return out
}

func (s *Store) get(pk int64) *storage.Entity {
	found := s.tree.Get(item{entity: &storage.Entity{PK: pk}})
	if found == nil {
		return nil
	}
	return found.(item).entity
}

// Get implements storage.Store.
func (s *Store) Get(ctx context.Context, pk int64) (*storage.Entity, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	e := s.get(pk)
	if e == nil {
		return nil, &storage.NotFoundError{PK: pk}
	}
	return e, nil
}

// GetExtras implements storage.Store.
func (s *Store) GetExtras(ctx context.Context, pk int64, namespace string) (map[string]interface{}, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	e := s.get(pk)
	if e == nil {
		return nil, &storage.NotFoundError{PK: pk}
	}
	v := lookupPath(e.Extras, namespace)
	if v == nil {
		return nil, nil
	}
	ns, ok := v.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("extras path %s of entity %d is not a mapping", namespace, pk)
	}
	// Copy so callers can't mutate stored state behind the lock.
	out := make(map[string]interface{}, len(ns))
	for k, val := range ns {
		out[k] = val
	}
	return out, nil
}

// SetExtras implements storage.Store.
func (s *Store) SetExtras(ctx context.Context, pk int64, namespace string, values map[string]interface{}) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	e := s.get(pk)
	if e == nil {
		return &storage.NotFoundError{PK: pk}
	}
	if e.Extras == nil {
		e.Extras = map[string]interface{}{}
	}
	parent := e.Extras
	parts := strings.Split(namespace, ".")
	for _, part := range parts[:len(parts)-1] {
		child, ok := parent[part].(map[string]interface{})
		if !ok {
			child = map[string]interface{}{}
			parent[part] = child
		}
		parent = child
	}
	parent[parts[len(parts)-1]] = values
	return nil
}

// DeleteExtras implements storage.Store.
func (s *Store) DeleteExtras(ctx context.Context, pk int64, namespace string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	e := s.get(pk)
	if e == nil {
		return &storage.NotFoundError{PK: pk}
	}
	parent := e.Extras
	parts := strings.Split(namespace, ".")
	for _, part := range parts[:len(parts)-1] {
		child, ok := parent[part].(map[string]interface{})
		if !ok {
			return nil
		}
		parent = child
	}
	delete(parent, parts[len(parts)-1])
	return nil
}

// Query implements storage.Store.
func (s *Store) Query() storage.Query {
	return &query{store: s, limit: -1}
}

type query struct {
	store    *Store
	nodeType string
	filters  []filter.Filter
	project  []string
	order    []storage.OrderSpec
	limit    int
	offset   int
}

func (q *query) WithType(nodeType string) storage.Query {
	q.nodeType = nodeType
	return q
}

func (q *query) WithFilter(f filter.Filter) storage.Query {
	if f != nil {
		q.filters = append(q.filters, f)
	}
	return q
}

func (q *query) Project(fields []string) storage.Query {
	q.project = fields
	return q
}

func (q *query) OrderBy(specs []storage.OrderSpec) storage.Query {
	q.order = specs
	return q
}

func (q *query) Limit(n int) storage.Query {
	q.limit = n
	return q
}

func (q *query) Offset(n int) storage.Query {
	q.offset = n
	return q
}

// matching returns entities satisfying the type discriminator and all
// filters, in PK order. Caller holds the store lock.
func (q *query) matching() ([]*storage.Entity, error) {
	var out []*storage.Entity
	var evalErr error
	q.store.tree.Ascend(func(i btree.Item) bool {
		e := i.(item).entity
		if q.nodeType != "" && !strings.HasPrefix(e.NodeType, q.nodeType) {
			return true
		}
		for _, f := range q.filters {
			ok, err := matchFilter(e, f)
			if err != nil {
				evalErr = err
				return false
			}
			if !ok {
				return true
			}
		}
		out = append(out, e)
		return true
	})
	if evalErr != nil {
		return nil, evalErr
	}
	return out, nil
}

func (q *query) Count(ctx context.Context) (int64, error) {
	q.store.lock.RLock()
	defer q.store.lock.RUnlock()
	matched, err := q.matching()
	if err != nil {
		return 0, err
	}
	return int64(len(matched)), nil
}

func (q *query) Rows(ctx context.Context) ([][]interface{}, error) {
	q.store.lock.RLock()
	defer q.store.lock.RUnlock()
	matched, err := q.matching()
	if err != nil {
		return nil, err
	}
	if len(q.order) > 0 {
		if err := sortEntities(matched, q.order); err != nil {
			return nil, err
		}
	}
	if q.offset > 0 {
		if q.offset >= len(matched) {
			matched = nil
		} else {
			matched = matched[q.offset:]
		}
	}
	if q.limit >= 0 && q.limit < len(matched) {
		matched = matched[:q.limit]
	}
	rows := make([][]interface{}, len(matched))
	for i, e := range matched {
		row := make([]interface{}, len(q.project))
		for j, field := range q.project {
			row[j] = resolve(e, field)
		}
		rows[i] = row
	}
	return rows, nil
}
