// Package runner genera rangos disjuntos de índices en paralelo. Cada rango
// usa su propio generador sembrado con rng.DeriveSeed(seed, inicio), así el
// resultado no depende del número de workers.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/content"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/dataset"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/generator"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/metrics"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/rng"
	"github.com/Roch-git/Synth-Receipt-Generator/pkg/logger"
)

// Range índices [Start, End)
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len cantidad de índices
func (r Range) Len() int {
	return r.End - r.Start
}

// Ranges parte [start, start+count) en rangos de size
func Ranges(start, count, size int) []Range {
	if size < 1 {
		size = 1
	}
	var out []Range
	for s := start; s < start+count; s += size {
		out = append(out, Range{Start: s, End: min(s+size, start+count)})
	}
	return out
}

// Tracker registro externo de progreso (Redis). Permite saltar índices ya
// guardados cuando se reintenta un rango.
type Tracker interface {
	IsSaved(ctx context.Context, index int) (bool, error)
	MarkSaved(ctx context.Context, index int, split string) error
	MarkFailed(ctx context.Context, index int) error
}

// Job parámetros compartidos por todos los rangos de una corrida
type Job struct {
	Spec        *config.ReceiptSpec
	Corpus      *content.Corpus
	Seed        int64
	Now         time.Time
	MaxAttempts int
	Writer      *dataset.Writer
	Tracker     Tracker
	Logger      *logger.Logger
}

// Result resumen de un rango
type Result struct {
	Range   Range
	Saved   int
	Skipped int
	Elapsed time.Duration
}

// RunRange genera y guarda todos los índices del rango. Los índices ya
// registrados por el Tracker o presentes en los metadatos del Writer se
// generan igual (para no desalinear el flujo) pero no se vuelven a guardar.
func RunRange(ctx context.Context, job *Job, r Range) (*Result, error) {
	log := job.Logger
	if log == nil {
		log = logger.Nop()
	}
	log = log.WithRange(r.Start, r.End)

	gen, err := generator.New(generator.Options{
		Spec:        job.Spec,
		Corpus:      job.Corpus,
		Now:         job.Now,
		Seed:        rng.DeriveSeed(job.Seed, r.Start),
		MaxAttempts: job.MaxAttempts,
		Logger:      log,
	})
	if err != nil {
		return nil, err
	}
	defer gen.Close()

	metrics.RangeStarted()
	defer metrics.RangeFinished()

	res := &Result{Range: r}
	began := time.Now()
	for i := r.Start; i < r.End; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		t0 := time.Now()
		sample, err := gen.Generate()
		if err != nil {
			if job.Tracker != nil {
				_ = job.Tracker.MarkFailed(ctx, i)
			}
			return res, fmt.Errorf("sample %d: %w", i, err)
		}

		if job.Tracker != nil {
			saved, err := job.Tracker.IsSaved(ctx, i)
			if err != nil {
				return res, fmt.Errorf("sample %d: %w", i, err)
			}
			if saved {
				res.Skipped++
				continue
			}
		}

		split, err := job.Writer.Save(sample, i)
		switch {
		case errors.Is(err, dataset.ErrAlreadySaved):
			res.Skipped++
			log.WithSample(i).Debugw("Sample already on disk", "split", split)
		case err != nil:
			return res, fmt.Errorf("sample %d: %w", i, err)
		default:
			metrics.RecordSampleSaved(split, time.Since(t0).Seconds())
			res.Saved++
		}

		if job.Tracker != nil {
			if err := job.Tracker.MarkSaved(ctx, i, split); err != nil {
				log.WithSample(i).WithError(err).Warnw("Failed to record saved sample")
			}
		}
		log.WithSample(i).Debugw("Sample generated",
			"split", split,
			"attempts", sample.Attempts,
			"effects", sample.Effects,
		)
	}
	res.Elapsed = time.Since(began)
	return res, nil
}

// Run procesa los rangos con hasta workers goroutines. El primer error
// cancela el resto.
func Run(ctx context.Context, job *Job, ranges []Range, workers int) ([]*Result, error) {
	results := make([]*Result, len(ranges))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, workers))
	for i, r := range ranges {
		g.Go(func() error {
			res, err := RunRange(ctx, job, r)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
