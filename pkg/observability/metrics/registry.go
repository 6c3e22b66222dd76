// Package metrics provides Prometheus metrics for record access operations.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OperationMetrics counts record access operations by name and outcome.
// Attach one to a docstore client to observe create/update/delete/query/upload
// traffic; outcomes are "success" or "error".
type OperationMetrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
}

// NewOperationMetrics creates a registry with the operation counter installed.
func NewOperationMetrics() *OperationMetrics {
	registry := prometheus.NewRegistry()
	operations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "recordkit_operations_total",
		Help: "Record access operations by operation name and outcome.",
	}, []string{"operation", "outcome"})
	registry.MustRegister(operations)

	return &OperationMetrics{registry: registry, operations: operations}
}

// Record counts one finished operation.
func (m *OperationMetrics) Record(operation string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.operations.WithLabelValues(operation, outcome).Inc()
}

// Handler exposes the registry in Prometheus format.
func (m *OperationMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Gatherer returns the underlying prometheus.Gatherer, useful in tests.
func (m *OperationMetrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
