package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/queue"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/runner"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/stats"
)

func newEnqueueCmd(opts *options) *cobra.Command {
	var (
		gf     generationFlags
		status string
	)
	cmd := &cobra.Command{
		Use:   "enqueue",
		Short: "Publish generation ranges to the task queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()
			ctx := cmd.Context()

			rdb := newRedisClient(cfg)
			defer rdb.Close()

			if status != "" {
				st, err := stats.NewRunCounters(rdb, status, log).Status(ctx)
				if err != nil {
					return err
				}
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}

			if err := gf.apply(cmd, cfg); err != nil {
				return err
			}
			gen := cfg.Generation

			// Fallar aquí y no en cada worker
			if _, err := config.LoadReceiptSpec(gen.ReceiptConfigPath); err != nil {
				return err
			}
			now, err := opts.referenceTime()
			if err != nil {
				return err
			}

			runID := uuid.New().String()
			ranges := runner.Ranges(gen.StartIndex, gen.Count, gen.RangeSize)

			if err := stats.NewRunCounters(rdb, runID, log).Start(ctx, gen.Count); err != nil {
				return fmt.Errorf("failed to initialize run counters: %w", err)
			}

			client := queue.NewQueueClient(queue.LoadConfig(cfg), log)
			defer client.Close()

			created := time.Now()
			for _, r := range ranges {
				_, err := client.EnqueueRange(ctx, &queue.RangePayload{
					RunID:       runID,
					Seed:        gen.Seed,
					Now:         now,
					Range:       r,
					OutputDir:   gen.OutputDir,
					ConfigPath:  gen.ReceiptConfigPath,
					MaxAttempts: gen.MaxAttempts,
					CreatedAt:   created,
				})
				if err != nil {
					return err
				}
			}

			log.Infow("Run enqueued", "run_id", runID, "ranges", len(ranges), "count", gen.Count)
			fmt.Fprintln(cmd.OutOrStdout(), runID)
			return nil
		},
	}

	gf.register(cmd)
	cmd.Flags().StringVar(&status, "status", "", "print progress of a run id and exit")
	return cmd
}

func newRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
