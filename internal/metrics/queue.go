package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Queue metrics - Métricas de la cola de rangos
var (
	// RangesEnqueuedTotal contador total de rangos encolados
	RangesEnqueuedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receiptgen_ranges_enqueued_total",
			Help: "Total number of index ranges enqueued by queue",
		},
		[]string{"queue"},
	)

	// RangesCompletedTotal contador total de rangos completados
	RangesCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receiptgen_ranges_completed_total",
			Help: "Total number of index ranges completed by queue",
		},
		[]string{"queue"},
	)

	// RangesFailedTotal contador total de rangos fallidos
	RangesFailedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receiptgen_ranges_failed_total",
			Help: "Total number of index ranges failed by queue and reason",
		},
		[]string{"queue", "reason"},
	)

	// RangeDurationSeconds histograma de duración de rangos
	RangeDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "receiptgen_range_duration_seconds",
			Help:    "Range processing duration in seconds",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600}, // 1s a 10min
		},
		[]string{"queue"},
	)

	// RangeRetryCount contador de reintentos
	RangeRetryCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receiptgen_range_retry_total",
			Help: "Total number of range retries by attempt",
		},
		[]string{"queue", "attempt"},
	)
)

// RecordRangeEnqueued registra rango encolado
func RecordRangeEnqueued(queue string) {
	RangesEnqueuedTotal.WithLabelValues(queue).Inc()
}

// RecordRangeCompleted registra rango completado
func RecordRangeCompleted(queue string, durationSeconds float64) {
	RangesCompletedTotal.WithLabelValues(queue).Inc()
	RangeDurationSeconds.WithLabelValues(queue).Observe(durationSeconds)
}

// RecordRangeFailed registra rango fallido
func RecordRangeFailed(queue, reason string) {
	RangesFailedTotal.WithLabelValues(queue, reason).Inc()
}

// RecordRangeRetry registra reintento de rango
func RecordRangeRetry(queue string, attempt int) {
	RangeRetryCount.WithLabelValues(queue, strconv.Itoa(attempt)).Inc()
}
