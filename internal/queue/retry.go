package queue

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/content"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/dataset"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/format"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/groundtruth"
	"github.com/Roch-git/Synth-Receipt-Generator/pkg/logger"
)

const (
	// Configuración de reintentos
	InitialRetryDelay    = 10 * time.Second
	MaxRetryDelay        = 10 * time.Minute
	RetryDelayMultiplier = 2.0
)

// RetryPolicy define la política de reintentos
type RetryPolicy struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	logger       *logger.Logger
}

// NewRetryPolicy crea una nueva política de reintentos
func NewRetryPolicy(log *logger.Logger) *RetryPolicy {
	return &RetryPolicy{
		InitialDelay: InitialRetryDelay,
		MaxDelay:     MaxRetryDelay,
		Multiplier:   RetryDelayMultiplier,
		logger:       log,
	}
}

// ComputeRetryDelay calcula el delay para el siguiente reintento usando exponential backoff
func (rp *RetryPolicy) ComputeRetryDelay(attempt int) time.Duration {
	if attempt <= 0 {
		return rp.InitialDelay
	}

	// Exponential backoff: InitialDelay * (Multiplier ^ attempt)
	delay := time.Duration(float64(rp.InitialDelay) * math.Pow(rp.Multiplier, float64(attempt)))

	// Jitter ±20%
	jitter := time.Duration(float64(delay) * 0.2 * (2*rand.Float64() - 1))
	delay += jitter

	if delay > rp.MaxDelay {
		delay = rp.MaxDelay
	}
	return delay
}

// IsPermanent errores que se repetirían igual en cada reintento: la
// configuración, el corpus o la desincronización texto/datos son
// deterministas para una misma semilla
func IsPermanent(err error) bool {
	return errors.Is(err, config.ErrInvalidConfig) ||
		errors.Is(err, content.ErrCorpus) ||
		errors.Is(err, format.ErrEmptyCatalog) ||
		errors.Is(err, groundtruth.ErrDesync) ||
		errors.Is(err, dataset.ErrSplitTable)
}

// Classify marca los errores permanentes con asynq.SkipRetry
func Classify(err error) error {
	if err == nil || !IsPermanent(err) {
		return err
	}
	return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
}

// AsynqRetryDelayFunc retorna la función de delay para Asynq
func (rp *RetryPolicy) AsynqRetryDelayFunc() asynq.RetryDelayFunc {
	return func(n int, err error, task *asynq.Task) time.Duration {
		delay := rp.ComputeRetryDelay(n)
		rp.logger.Infow("Scheduling retry",
			"task_type", task.Type(),
			"attempt", n+1,
			"delay", delay,
			"error", err,
		)
		return delay
	}
}
