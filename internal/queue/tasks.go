package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/metrics"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/runner"
	"github.com/Roch-git/Synth-Receipt-Generator/internal/stats"
	"github.com/Roch-git/Synth-Receipt-Generator/pkg/logger"
)

// TypeGenerateRange genera y guarda un rango de índices
const TypeGenerateRange = "receipts:generate-range"

// RangePayload payload de una tarea de rango. Lleva todo lo necesario para
// que cualquier worker reproduzca exactamente las mismas muestras.
type RangePayload struct {
	RunID       string       `json:"run_id"`
	Seed        int64        `json:"seed"`
	Now         time.Time    `json:"now"`
	Range       runner.Range `json:"range"`
	OutputDir   string       `json:"output_dir"`
	ConfigPath  string       `json:"config_path,omitempty"`
	MaxAttempts int          `json:"max_attempts"`
	CreatedAt   time.Time    `json:"created_at"`
}

// TaskID identificador estable de la tarea; evita encolar dos veces el
// mismo rango de una corrida
func (p *RangePayload) TaskID() string {
	return fmt.Sprintf("%s:%d-%d", p.RunID, p.Range.Start, p.Range.End)
}

// Client wrapper para Asynq client con métodos helper
type Client struct {
	asynqClient *asynq.Client
	config      *Config
	logger      *logger.Logger
}

// NewQueueClient crea un nuevo cliente de cola
func NewQueueClient(cfg *Config, log *logger.Logger) *Client {
	return &Client{
		asynqClient: NewClient(cfg),
		config:      cfg,
		logger:      log,
	}
}

// EnqueueRange encola la generación de un rango
func (c *Client) EnqueueRange(ctx context.Context, payload *RangePayload) (*asynq.TaskInfo, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	task := asynq.NewTask(TypeGenerateRange, payloadBytes)
	info, err := c.asynqClient.EnqueueContext(ctx, task,
		asynq.Queue(c.config.Queue),
		asynq.MaxRetry(c.config.MaxRetries),
		asynq.Timeout(30*time.Minute),
		asynq.TaskID(payload.TaskID()),
		asynq.Retention(24*time.Hour), // Retener info por 24h
	)
	if err != nil {
		c.logger.Errorw("Failed to enqueue range",
			"run_id", payload.RunID,
			"range_start", payload.Range.Start,
			"range_end", payload.Range.End,
			"error", err,
		)
		return nil, fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.Infow("Range enqueued",
		"run_id", payload.RunID,
		"range_start", payload.Range.Start,
		"range_end", payload.Range.End,
		"queue", c.config.Queue,
		"task_id", info.ID,
	)
	metrics.RecordRangeEnqueued(c.config.Queue)
	return info, nil
}

// Close cierra el cliente
func (c *Client) Close() error {
	return c.asynqClient.Close()
}

// Handler procesa tareas de rango
type Handler struct {
	queue  string
	redis  *redis.Client
	logger *logger.Logger

	// specs y corpus se cargan una vez por ruta de configuración
	cache *assetCache
}

// NewHandler crea el handler. redisClient puede ser nil (sin deduplicación
// de reintentos).
func NewHandler(queue string, redisClient *redis.Client, log *logger.Logger) *Handler {
	return &Handler{
		queue:  queue,
		redis:  redisClient,
		logger: log,
		cache:  newAssetCache(),
	}
}

// Register registra el handler en un mux de asynq
func (h *Handler) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeGenerateRange, h.ProcessTask)
}

// ProcessTask genera el rango del payload
func (h *Handler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p RangePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		metrics.RecordRangeFailed(h.queue, "payload")
		return fmt.Errorf("invalid payload: %v: %w", err, asynq.SkipRetry)
	}

	if n, ok := asynq.GetRetryCount(ctx); ok && n > 0 {
		metrics.RecordRangeRetry(h.queue, n)
	}

	log := h.logger.WithFields(map[string]interface{}{"run_id": p.RunID}).WithRange(p.Range.Start, p.Range.End)
	log.Infow("Processing range")

	assets, err := h.cache.get(p.ConfigPath, p.Seed, p.OutputDir, h.logger)
	if err != nil {
		metrics.RecordRangeFailed(h.queue, "config")
		return Classify(err)
	}

	counters := stats.NewRunCounters(h.redis, p.RunID, log)
	job := &runner.Job{
		Spec:        assets.spec,
		Corpus:      assets.corpus,
		Seed:        p.Seed,
		Now:         p.Now,
		MaxAttempts: p.MaxAttempts,
		Writer:      assets.writer,
		Tracker:     counters,
		Logger:      log,
	}

	res, err := runner.RunRange(ctx, job, p.Range)
	if err != nil {
		metrics.RecordRangeFailed(h.queue, "generate")
		log.WithError(err).Errorw("Range failed")
		return Classify(err)
	}

	if err := counters.MarkRangeDone(ctx); err != nil {
		log.WithError(err).Warnw("Failed to record range completion")
	}
	metrics.RecordRangeCompleted(h.queue, res.Elapsed.Seconds())
	log.Infow("Range completed",
		"saved", res.Saved,
		"skipped", res.Skipped,
		"duration", res.Elapsed,
	)
	return nil
}
