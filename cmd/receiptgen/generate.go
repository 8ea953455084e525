package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/content"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/dataset"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/runner"
)

func newGenerateCmd(opts *options) *cobra.Command {
	var gf generationFlags
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate a dataset locally",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			if err := gf.apply(cmd, cfg); err != nil {
				return err
			}
			gen := cfg.Generation

			now, err := opts.referenceTime()
			if err != nil {
				return err
			}

			spec, err := config.LoadReceiptSpec(gen.ReceiptConfigPath)
			if err != nil {
				return err
			}
			corpus, err := content.LoadCorpus(spec.Document.Content.CorpusPath)
			if err != nil {
				return err
			}
			table, err := dataset.NewTable(spec.Splits, gen.Seed)
			if err != nil {
				return err
			}
			writer := dataset.NewWriter(gen.OutputDir, table, log)
			if _, err := writer.CleanupTemp(cmd.Context(), time.Hour); err != nil {
				log.WithError(err).Warnw("Temp cleanup failed")
			}

			job := &runner.Job{
				Spec:        spec,
				Corpus:      corpus,
				Seed:        gen.Seed,
				Now:         now,
				MaxAttempts: gen.MaxAttempts,
				Writer:      writer,
				Logger:      log,
			}
			ranges := runner.Ranges(gen.StartIndex, gen.Count, gen.RangeSize)

			log.Infow("Starting generation",
				"count", gen.Count,
				"start", gen.StartIndex,
				"seed", gen.Seed,
				"workers", gen.Workers,
				"ranges", len(ranges),
				"output", gen.OutputDir,
			)

			began := time.Now()
			_, err = runner.Run(cmd.Context(), job, ranges, gen.Workers)
			writer.EndSave()
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}

			elapsed := time.Since(began)
			perSample := time.Duration(0)
			if gen.Count > 0 {
				perSample = elapsed / time.Duration(gen.Count)
			}
			log.Infow("Generation finished",
				"elapsed", elapsed,
				"per_sample", perSample,
			)
			return nil
		},
	}

	gf.register(cmd)
	cmd.Flags().IntVarP(&gf.workers, "workers", "w", 1, "parallel generators")
	return cmd
}
