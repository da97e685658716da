package main

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hodei-sh/authz-core/evaluator"
)

// demoMetrics is the optional Prometheus surface authzctl registers when
// metrics.enabled is set. The core use-cases never import this package;
// authzctl reads the entity_count/action_count/Decision values the core
// already returns and republishes them as gauges/counters.
type demoMetrics struct {
	enabled bool

	schemaEntityCount prometheus.Gauge
	schemaActionCount prometheus.Gauge
	evaluationsTotal  *prometheus.CounterVec
}

func newDemoMetrics(enabled bool) *demoMetrics {
	m := &demoMetrics{enabled: enabled}
	if !enabled {
		return m
	}

	m.schemaEntityCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "authz_schema_entity_count",
		Help: "Number of entity types in the most recently built schema.",
	})
	m.schemaActionCount = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "authz_schema_action_count",
		Help: "Number of action types in the most recently built schema.",
	})
	m.evaluationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authz_evaluations_total",
		Help: "Total number of authorization evaluations, partitioned by decision.",
	}, []string{"decision"})

	prometheus.MustRegister(m.schemaEntityCount, m.schemaActionCount, m.evaluationsTotal)
	return m
}

func (m *demoMetrics) recordSchemaBuild(entityCount, actionCount int) {
	if !m.enabled {
		return
	}
	m.schemaEntityCount.Set(float64(entityCount))
	m.schemaActionCount.Set(float64(actionCount))
}

func (m *demoMetrics) recordEvaluation(decision evaluator.Decision) {
	if !m.enabled {
		return
	}
	label := "deny"
	if decision.Allowed {
		label = "allow"
	}
	m.evaluationsTotal.WithLabelValues(label).Inc()
}
