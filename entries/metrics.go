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
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aiidateam/optimade-go/util/metrics"
)

// Metrics holds the timing and cache metrics of the query engine. A nil
// *Metrics disables instrumentation.
type Metrics struct {
	findDuration      prometheus.Summary
	parseDuration     prometheus.Summary
	calculateDuration prometheus.Summary
	countDuration     prometheus.Summary
	fetchDuration     prometheus.Summary
	countCacheHits    prometheus.Counter
	countCacheMisses  prometheus.Counter
}

// NewMetrics creates and registers the query-engine metrics.
func NewMetrics(registry prometheus.Registerer) *Metrics {
	mr := metrics.Registry{R: registry}
	objectives := map[float64]float64{
		0.5:  0.05,
		0.9:  0.01,
		0.99: 0.001,
	}
	summary := func(name, help string) prometheus.Summary {
		return mr.NewSummary(prometheus.SummaryOpts{
			Namespace:  "optimade",
			Subsystem:  "entries",
			Name:       name,
			Help:       help,
			Objectives: objectives,
		})
	}
	return &Metrics{
		findDuration:      summary("find_seconds", "Duration of a whole find call."),
		parseDuration:     summary("parse_seconds", "Duration of filter parsing and criteria validation."),
		calculateDuration: summary("calculate_seconds", "Duration of on-demand attribute calculation."),
		countDuration:     summary("count_seconds", "Duration of backend count queries."),
		fetchDuration:     summary("fetch_seconds", "Duration of the backend fetch query."),
		countCacheHits: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "optimade",
			Subsystem: "entries",
			Name:      "count_cache_hits_total",
			Help:      "Count queries answered from the collection cache.",
		}),
		countCacheMisses: mr.NewCounter(prometheus.CounterOpts{
			Namespace: "optimade",
			Subsystem: "entries",
			Name:      "count_cache_misses_total",
			Help:      "Count queries that had to hit the backend.",
		}),
	}
}

// stage names accepted by observe. The whole-call find duration is fed by
// the tracing span observer rather than observe.
const (
	stageParse     = "parse"
	stageCalculate = "calculate"
	stageCount     = "count"
	stageFetch     = "fetch"
)

func (m *Metrics) observe(stage string, seconds float64) {
	if m == nil {
		return
	}
	switch stage {
	case stageParse:
		m.parseDuration.Observe(seconds)
	case stageCalculate:
		m.calculateDuration.Observe(seconds)
	case stageCount:
		m.countDuration.Observe(seconds)
	case stageFetch:
		m.fetchDuration.Observe(seconds)
	}
}

func (m *Metrics) hit() {
	if m != nil {
		m.countCacheHits.Inc()
	}
}

func (m *Metrics) miss() {
	if m != nil {
		m.countCacheMisses.Inc()
	}
}
