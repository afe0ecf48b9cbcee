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

package translator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aiidateam/optimade-go/storage"
)

// structureDerivers maps OPTIMADE structures attributes to their derivation
// functions. chemical_formula_hill deliberately has no entry: it is
// optional and BuildAttributes omits it with a warning.
var structureDerivers = map[string]Deriver{
	"elements":                     deriveElements,
	"nelements":                    deriveNElements,
	"elements_ratios":              deriveElementsRatios,
	"chemical_formula_descriptive": deriveFormulaDescriptive,
	"chemical_formula_reduced":     deriveFormulaReduced,
	"chemical_formula_anonymous":   deriveFormulaAnonymous,
	"dimension_types":              deriveDimensionTypes,
	"nperiodic_dimensions":         deriveNPeriodicDimensions,
	"lattice_vectors":              deriveLatticeVectors,
	"cartesian_site_positions":     deriveSitePositions,
	"nsites":                       deriveNSites,
	"species":                      deriveSpecies,
	"species_at_sites":             deriveSpeciesAtSites,
	"structure_features":           deriveStructureFeatures,
}

// kind is one atomic species definition from the raw structure data.
type kind struct {
	Name    string
	Symbols []string
	Weights []float64
}

// site is one atomic site.
type site struct {
	KindName string
	Position []float64
}

func rawKinds(e *storage.Entity) ([]kind, error) {
	list, ok := asAnyList(e.Attrs["kinds"])
	if !ok {
		return nil, fmt.Errorf("entity %d has no kinds", e.PK)
	}
	kinds := make([]kind, len(list))
	for i, raw := range list {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("kind %d of entity %d is not a mapping", i, e.PK)
		}
		k := kind{Name: asString(m["name"])}
		syms, _ := asAnyList(m["symbols"])
		for _, s := range syms {
			k.Symbols = append(k.Symbols, asString(s))
		}
		weights, _ := asAnyList(m["weights"])
		for _, w := range weights {
			f, ok := toFloat(w)
			if !ok {
				return nil, fmt.Errorf("kind %s of entity %d has a non-numeric weight", k.Name, e.PK)
			}
			k.Weights = append(k.Weights, f)
		}
		kinds[i] = k
	}
	return kinds, nil
}

func rawSites(e *storage.Entity) ([]site, error) {
	list, ok := asAnyList(e.Attrs["sites"])
	if !ok {
		return nil, fmt.Errorf("entity %d has no sites", e.PK)
	}
	sites := make([]site, len(list))
	for i, raw := range list {
		m, ok := raw.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("site %d of entity %d is not a mapping", i, e.PK)
		}
		s := site{KindName: asString(m["kind_name"])}
		pos, _ := asAnyList(m["position"])
		for _, p := range pos {
			f, ok := toFloat(p)
			if !ok {
				return nil, fmt.Errorf("site %d of entity %d has a non-numeric position", i, e.PK)
			}
			s.Position = append(s.Position, f)
		}
		sites[i] = s
	}
	return sites, nil
}

// elementCounts returns the integer number of sites per element symbol,
// attributing each site to the first symbol of its kind.
func elementCounts(e *storage.Entity) (map[string]int, error) {
	kinds, err := rawKinds(e)
	if err != nil {
		return nil, err
	}
	sites, err := rawSites(e)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]kind, len(kinds))
	for _, k := range kinds {
		byName[k.Name] = k
	}
	counts := map[string]int{}
	for _, s := range sites {
		k, ok := byName[s.KindName]
		if !ok || len(k.Symbols) == 0 {
			return nil, fmt.Errorf("site of entity %d references unknown kind %q", e.PK, s.KindName)
		}
		counts[k.Symbols[0]]++
	}
	return counts, nil
}

func sortedElements(counts map[string]int) []string {
	out := make([]string, 0, len(counts))
	for el := range counts {
		out = append(out, el)
	}
	sort.Strings(out)
	return out
}

func deriveElements(e *storage.Entity) (interface{}, error) {
	counts, err := elementCounts(e)
	if err != nil {
		return nil, err
	}
	elements := sortedElements(counts)
	out := make([]interface{}, len(elements))
	for i, el := range elements {
		out[i] = el
	}
	return out, nil
}

func deriveNElements(e *storage.Entity) (interface{}, error) {
	counts, err := elementCounts(e)
	if err != nil {
		return nil, err
	}
	return int64(len(counts)), nil
}

func deriveElementsRatios(e *storage.Entity) (interface{}, error) {
	counts, err := elementCounts(e)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return nil, fmt.Errorf("entity %d has no sites", e.PK)
	}
	ratios := make([]float64, 0, len(counts))
	for _, el := range sortedElements(counts) {
		ratios = append(ratios, float64(counts[el])/float64(total))
	}
	return ratios, nil
}

func formatFormula(elements []string, counts map[string]int) string {
	var b strings.Builder
	for _, el := range elements {
		b.WriteString(el)
		if n := counts[el]; n != 1 {
			fmt.Fprintf(&b, "%d", n)
		}
	}
	return b.String()
}

func deriveFormulaDescriptive(e *storage.Entity) (interface{}, error) {
	counts, err := elementCounts(e)
	if err != nil {
		return nil, err
	}
	return formatFormula(sortedElements(counts), counts), nil
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func reducedCounts(counts map[string]int) map[string]int {
	g := 0
	for _, n := range counts {
		g = gcd(g, n)
	}
	out := make(map[string]int, len(counts))
	for el, n := range counts {
		out[el] = n / g
	}
	return out
}

func deriveFormulaReduced(e *storage.Entity) (interface{}, error) {
	counts, err := elementCounts(e)
	if err != nil {
		return nil, err
	}
	reduced := reducedCounts(counts)
	return formatFormula(sortedElements(reduced), reduced), nil
}

// anonSymbol yields the proportion placeholders A..Z, Aa..Az, Ba.. for the
// anonymous formula.
func anonSymbol(i int) string {
	if i < 26 {
		return string(rune('A' + i))
	}
	return string(rune('A'+i/26-1)) + string(rune('a'+i%26))
}

func deriveFormulaAnonymous(e *storage.Entity) (interface{}, error) {
	counts, err := elementCounts(e)
	if err != nil {
		return nil, err
	}
	reduced := reducedCounts(counts)
	ns := make([]int, 0, len(reduced))
	for _, n := range reduced {
		ns = append(ns, n)
	}
	// Descending proportion, A taking the largest.
	sort.Sort(sort.Reverse(sort.IntSlice(ns)))
	var b strings.Builder
	for i, n := range ns {
		b.WriteString(anonSymbol(i))
		if n != 1 {
			fmt.Fprintf(&b, "%d", n)
		}
	}
	return b.String(), nil
}

func pbcFlags(e *storage.Entity) ([3]bool, error) {
	var out [3]bool
	for i, key := range []string{"pbc1", "pbc2", "pbc3"} {
		v, ok := e.Attrs[key].(bool)
		if !ok {
			return out, fmt.Errorf("entity %d has no %s flag", e.PK, key)
		}
		out[i] = v
	}
	return out, nil
}

func deriveDimensionTypes(e *storage.Entity) (interface{}, error) {
	pbc, err := pbcFlags(e)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, 3)
	for i, b := range pbc {
		if b {
			out[i] = int64(1)
		} else {
			out[i] = int64(0)
		}
	}
	return out, nil
}

func deriveNPeriodicDimensions(e *storage.Entity) (interface{}, error) {
	pbc, err := pbcFlags(e)
	if err != nil {
		return nil, err
	}
	n := int64(0)
	for _, b := range pbc {
		if b {
			n++
		}
	}
	return n, nil
}

func deriveLatticeVectors(e *storage.Entity) (interface{}, error) {
	rows, ok := asAnyList(e.Attrs["cell"])
	if !ok {
		return nil, fmt.Errorf("entity %d has no cell", e.PK)
	}
	cell := make([][]float64, len(rows))
	for i, raw := range rows {
		vec, ok := asAnyList(raw)
		if !ok {
			return nil, fmt.Errorf("cell row %d of entity %d is not a list", i, e.PK)
		}
		cell[i] = make([]float64, len(vec))
		for j, v := range vec {
			f, ok := toFloat(v)
			if !ok {
				return nil, fmt.Errorf("cell entry of entity %d is not numeric", e.PK)
			}
			cell[i][j] = f
		}
	}
	return cell, nil
}

func deriveSitePositions(e *storage.Entity) (interface{}, error) {
	sites, err := rawSites(e)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(sites))
	for i, s := range sites {
		out[i] = s.Position
	}
	return out, nil
}

func deriveNSites(e *storage.Entity) (interface{}, error) {
	sites, err := rawSites(e)
	if err != nil {
		return nil, err
	}
	return int64(len(sites)), nil
}

func deriveSpecies(e *storage.Entity) (interface{}, error) {
	kinds, err := rawKinds(e)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, len(kinds))
	for i, k := range kinds {
		symbols := make([]interface{}, len(k.Symbols))
		for j, s := range k.Symbols {
			symbols[j] = s
		}
		weights := k.Weights
		if len(weights) == 0 {
			weights = make([]float64, len(k.Symbols))
			for j := range weights {
				weights[j] = 1.0
			}
		}
		concentration := make([]interface{}, len(weights))
		for j, w := range weights {
			concentration[j] = w
		}
		out[i] = map[string]interface{}{
			"name":             k.Name,
			"chemical_symbols": symbols,
			"concentration":    concentration,
		}
	}
	return out, nil
}

func deriveSpeciesAtSites(e *storage.Entity) (interface{}, error) {
	sites, err := rawSites(e)
	if err != nil {
		return nil, err
	}
	out := make([]interface{}, len(sites))
	for i, s := range sites {
		out[i] = s.KindName
	}
	return out, nil
}

func deriveStructureFeatures(e *storage.Entity) (interface{}, error) {
	kinds, err := rawKinds(e)
	if err != nil {
		return nil, err
	}
	features := []interface{}{}
	for _, k := range kinds {
		if len(k.Symbols) > 1 {
			features = append(features, "disorder")
			break
		}
	}
	return features, nil
}

func asAnyList(v interface{}) ([]interface{}, bool) {
	list, ok := v.([]interface{})
	return list, ok
}

func asString(v interface{}) string {
	s, _ := v.(string)
	return s
}

func toFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	default:
		return 0, false
	}
}
