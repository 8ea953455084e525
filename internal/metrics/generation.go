package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Generation metrics - Métricas de generación de muestras
var (
	// SamplesGeneratedTotal contador de muestras guardadas por split
	SamplesGeneratedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receiptgen_samples_generated_total",
			Help: "Total number of samples saved by split",
		},
		[]string{"split"},
	)

	// SampleGenerationSeconds histograma de tiempo por muestra
	SampleGenerationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "receiptgen_sample_generation_seconds",
			Help:    "Time to generate one sample in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
	)

	// LayoutRetriesTotal contador de reintentos por desborde del layout
	LayoutRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "receiptgen_layout_retries_total",
			Help: "Total number of generation attempts discarded because content did not fit",
		},
	)

	// EffectsAppliedTotal contador de efectos aplicados por etapa
	EffectsAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receiptgen_effects_applied_total",
			Help: "Total number of effect stages applied by stage",
		},
		[]string{"stage"},
	)

	// SaveFailuresTotal contador de errores al persistir muestras
	SaveFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "receiptgen_save_failures_total",
			Help: "Total number of failures writing samples by step",
		},
		[]string{"step"}, // step: image, metadata
	)
)

// RecordSampleSaved registra una muestra guardada
func RecordSampleSaved(split string, durationSeconds float64) {
	SamplesGeneratedTotal.WithLabelValues(split).Inc()
	SampleGenerationSeconds.Observe(durationSeconds)
}

// RecordLayoutRetry registra un intento descartado
func RecordLayoutRetry() {
	LayoutRetriesTotal.Inc()
}

// RecordEffectApplied registra una etapa de efectos aplicada
func RecordEffectApplied(stage string) {
	EffectsAppliedTotal.WithLabelValues(stage).Inc()
}

// RecordSaveFailure registra un error de escritura
func RecordSaveFailure(step string) {
	SaveFailuresTotal.WithLabelValues(step).Inc()
}
