package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Worker metrics - Métricas de workers
var (
	// WorkerActiveRanges gauge de rangos en proceso
	WorkerActiveRanges = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "receiptgen_worker_active_ranges",
			Help: "Number of index ranges currently being generated",
		},
	)

	// WorkerHealth gauge de salud del worker (1=healthy, 0=unhealthy)
	WorkerHealth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "receiptgen_worker_health",
			Help: "Worker health status (1=healthy, 0=unhealthy)",
		},
		[]string{"instance"},
	)

	// WorkerConcurrency gauge de concurrencia configurada
	WorkerConcurrency = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "receiptgen_worker_concurrency",
			Help: "Worker concurrency limit",
		},
	)
)

// RangeStarted incrementa rangos activos
func RangeStarted() {
	WorkerActiveRanges.Inc()
}

// RangeFinished decrementa rangos activos
func RangeFinished() {
	WorkerActiveRanges.Dec()
}

// SetWorkerHealth establece salud del worker
func SetWorkerHealth(instance string, healthy bool) {
	healthValue := 0.0
	if healthy {
		healthValue = 1.0
	}
	WorkerHealth.WithLabelValues(instance).Set(healthValue)
}

// SetWorkerConcurrency establece límite de concurrencia
func SetWorkerConcurrency(limit int) {
	WorkerConcurrency.Set(float64(limit))
}
