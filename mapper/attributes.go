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

package mapper

// Kind is the value type of an OPTIMADE attribute. Sorting needs it because
// the extras store is dynamically typed: the backend cannot infer a sort
// cast on its own, and list-valued attributes cannot be sorted at all.
type Kind int

const (
	// KindString sorts as text.
	KindString Kind = iota + 1
	// KindInt sorts as an integer.
	KindInt
	// KindFloat sorts as a float.
	KindFloat
	// KindBool sorts as a boolean.
	KindBool
	// KindDatetime sorts as a timestamp.
	KindDatetime
	// KindList is multi-valued and cannot be sorted on.
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindDatetime:
		return "datetime"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Attribute describes one OPTIMADE attribute of the structures collection.
type Attribute struct {
	Name string
	Kind Kind
	// Required attributes must be present in every response; if one cannot
	// be derived the whole calculation for that entity fails.
	Required bool
	// Hex marks float-valued attributes stored as hex-string literals in
	// the extras namespace to survive store/reload without rounding drift.
	Hex bool
}

// structureAttributes lists every OPTIMADE structures attribute this adapter
// serves. Attributes without an entry in the alias table (see aliases in
// mapper.go) are derived: they live under the extras namespace and are
// computed on demand by the translator.
var structureAttributes = []Attribute{
	{Name: "id", Kind: KindString, Required: true},
	{Name: "immutable_id", Kind: KindString, Required: true},
	{Name: "last_modified", Kind: KindDatetime, Required: true},
	{Name: "elements", Kind: KindList, Required: true},
	{Name: "nelements", Kind: KindInt, Required: true},
	{Name: "elements_ratios", Kind: KindList, Required: true, Hex: true},
	{Name: "chemical_formula_descriptive", Kind: KindString, Required: true},
	{Name: "chemical_formula_reduced", Kind: KindString, Required: true},
	{Name: "chemical_formula_hill", Kind: KindString},
	{Name: "chemical_formula_anonymous", Kind: KindString, Required: true},
	{Name: "dimension_types", Kind: KindList, Required: true},
	{Name: "nperiodic_dimensions", Kind: KindInt, Required: true},
	{Name: "lattice_vectors", Kind: KindList, Required: true, Hex: true},
	{Name: "cartesian_site_positions", Kind: KindList, Required: true, Hex: true},
	{Name: "nsites", Kind: KindInt, Required: true},
	{Name: "species", Kind: KindList, Required: true},
	{Name: "species_at_sites", Kind: KindList, Required: true},
	{Name: "structure_features", Kind: KindList, Required: true},
}
