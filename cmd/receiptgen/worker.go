package main

import (
	"fmt"
	"os"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/health"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/metrics"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/queue"
)

func newWorkerCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run a queue worker that generates enqueued ranges",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := opts.load(cmd)
			if err != nil {
				return err
			}
			defer log.Sync()

			hostname, _ := os.Hostname()
			log.Infow("Starting receipt worker",
				"queue", cfg.Queue.Name,
				"concurrency", cfg.Queue.Concurrency,
				"redis", cfg.RedisAddr(),
			)

			queueConfig := queue.LoadConfig(cfg)
			server := queue.NewServer(queueConfig, queue.NewRetryPolicy(log))

			var rdb *redis.Client
			if cfg.Redis.Enabled {
				rdb = newRedisClient(cfg)
				defer rdb.Close()
			}
			handler := queue.NewHandler(queueConfig.Queue, rdb, log)
			mux := asynq.NewServeMux()
			handler.Register(mux)

			metrics.SetWorkerHealth(hostname, true)
			metrics.SetWorkerConcurrency(queueConfig.Concurrency)

			var app *fiber.App
			if cfg.Metrics.Enabled {
				app = newMonitorApp(health.NewChecker(log, rdb, cfg.Generation.OutputDir))
				go func() {
					addr := fmt.Sprintf(":%d", cfg.Metrics.Port)
					if err := app.Listen(addr); err != nil {
						log.WithError(err).Errorw("Metrics server stopped")
					}
				}()
			}

			if err := server.Start(mux); err != nil {
				metrics.SetWorkerHealth(hostname, false)
				return fmt.Errorf("failed to start worker: %w", err)
			}
			log.Infow("Worker started")

			// Esperar señal de shutdown
			<-cmd.Context().Done()
			log.Infow("Shutting down worker")

			server.Shutdown()
			metrics.SetWorkerHealth(hostname, false)
			if app != nil {
				_ = app.Shutdown()
			}
			log.Infow("Worker stopped")
			return nil
		},
	}
}

// newMonitorApp endpoints /health y /metrics del worker
func newMonitorApp(checker *health.Checker) *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/health", func(c *fiber.Ctx) error {
		status := checker.ReadinessProbe(c.UserContext())
		if !status.Healthy() {
			return c.Status(fiber.StatusServiceUnavailable).JSON(status)
		}
		return c.JSON(status)
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	return app
}
