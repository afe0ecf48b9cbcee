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

// Package storage defines the entity-store interface the query engine runs
// against: filtered projection queries with counts, and per-entity
// extensible metadata ("extras") addressed by dotted path. Implementations
// live in sub-packages; memstore is the bundled in-memory backend.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aiidateam/optimade-go/filter"
)

// Entity is one stored record. Attributes holds the raw domain data the
// derivation engine computes from (cell, sites, kinds for a structure);
// Extras is the extensible per-entity metadata namespace.
type Entity struct {
	PK       int64                  `json:"pk"`
	UUID     string                 `json:"uuid"`
	NodeType string                 `json:"node_type"`
	CTime    time.Time              `json:"ctime"`
	MTime    time.Time              `json:"mtime"`
	Attrs    map[string]interface{} `json:"attributes"`
	Extras   map[string]interface{} `json:"extras"`
}

// CastTag tells the backend what type to sort a dynamically-typed field as.
type CastTag string

const (
	CastText     CastTag = "t"
	CastInt      CastTag = "i"
	CastFloat    CastTag = "f"
	CastBool     CastTag = "b"
	CastDatetime CastTag = "d"
)

// OrderSpec is one element of a sort specification.
type OrderSpec struct {
	// Field is the backend-aliased dotted path to sort on.
	Field string
	Desc  bool
	Cast  CastTag
}

// Query is a builder for one filtered projection query or count. Builder
// methods return the receiver for chaining; Count and Rows execute.
type Query interface {
	// WithType restricts the query to entities whose node type starts with
	// the given discriminator prefix.
	WithType(nodeType string) Query
	// WithFilter applies a boolean-nested predicate filter in the
	// query-builder dialect. Field keys must already be backend-aliased.
	WithFilter(f filter.Filter) Query
	// Project sets the list of backend-aliased paths each row returns,
	// in order.
	Project(fields []string) Query
	OrderBy(specs []OrderSpec) Query
	Limit(n int) Query
	Offset(n int) Query

	// Count executes the query without limit/offset/projection and returns
	// the number of matching entities.
	Count(ctx context.Context) (int64, error)
	// Rows executes the query and returns one value slice per entity, in
	// projection order.
	Rows(ctx context.Context) ([][]interface{}, error)
}

// Store is an entity store.
type Store interface {
	// Query starts a new query builder.
	Query() Query
	// Get fetches one entity by PK. Returns *NotFoundError if absent.
	Get(ctx context.Context, pk int64) (*Entity, error)
	// GetExtras reads the nested mapping at the dotted namespace path of
	// the entity's extras, or nil if the path is absent.
	GetExtras(ctx context.Context, pk int64, namespace string) (map[string]interface{}, error)
	// SetExtras replaces the nested mapping at the dotted namespace path in
	// a single write, creating intermediate maps as needed.
	SetExtras(ctx context.Context, pk int64, namespace string, values map[string]interface{}) error
	// DeleteExtras removes the dotted namespace path (and everything under
	// it) from the entity's extras. Removing an absent path is a no-op.
	DeleteExtras(ctx context.Context, pk int64, namespace string) error
}

// NotFoundError reports a lookup by identifier that found nothing. It is
// distinct from a query legitimately matching zero entities.
type NotFoundError struct {
	PK int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no entity with PK %d", e.PK)
}

// IsNotFound reports whether err is a *NotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*NotFoundError)
	return ok
}
