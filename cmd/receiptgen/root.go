package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/pkg/logger"
)

// options flags globales; los valores no indicados salen del entorno
type options struct {
	configPath string
	output     string
	seed       int64
	now        string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "receiptgen",
		Short:         "Synthetic receipt images with matching ground truth",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "receipt YAML config (defaults when empty)")
	root.PersistentFlags().StringVarP(&opts.output, "output", "o", "", "output directory")
	root.PersistentFlags().Int64VarP(&opts.seed, "seed", "s", 0, "global seed")
	root.PersistentFlags().StringVar(&opts.now, "now", "", "reference date for receipt timestamps, YYYY-MM-DD (default today)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newGenerateCmd(opts),
		newEnqueueCmd(opts),
		newWorkerCmd(opts),
	)
	return root
}

// load combina la configuración del entorno con los flags indicados
func (o *options) load(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("config") {
		cfg.Generation.ReceiptConfigPath = o.configPath
	}
	if flags.Changed("output") {
		cfg.Generation.OutputDir = o.output
	}
	if flags.Changed("seed") {
		cfg.Generation.Seed = o.seed
	}
	if o.verbose {
		cfg.Log.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, logger.New(cfg.Log.Level, cfg.Log.Format), nil
}

// generationFlags overrides de tamaño de corrida de generate y enqueue
type generationFlags struct {
	count   int
	start   int
	workers int
}

func (g *generationFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&g.count, "count", "n", 0, "number of samples")
	cmd.Flags().IntVar(&g.start, "start", 0, "first sample index")
}

// apply aplica los flags indicados y vuelve a validar la configuración
func (g *generationFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("count") {
		cfg.Generation.Count = g.count
	}
	if flags.Changed("start") {
		cfg.Generation.StartIndex = g.start
	}
	if flags.Changed("workers") {
		cfg.Generation.Workers = g.workers
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// referenceTime fecha de referencia de los tickets. Fijarla hace que dos
// corridas con la misma semilla sean idénticas en días distintos.
func (o *options) referenceTime() (time.Time, error) {
	if o.now == "" {
		y, m, d := time.Now().UTC().Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse("2006-01-02", o.now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --now %q: %w", o.now, err)
	}
	return t, nil
}
