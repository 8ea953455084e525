package stats

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Roch-git/Synth-Receipt-Generator/pkg/logger"
)

const (
	keyPrefix = "receiptgen:run"
	runTTL    = 7 * 24 * time.Hour // Expirar en 7 días
)

// RunCounters contadores de progreso por corrida en Redis. Con cliente nil
// todas las operaciones son no-op.
type RunCounters struct {
	redis  *redis.Client
	runID  string
	logger *logger.Logger
}

// NewRunCounters crea los contadores de una corrida
func NewRunCounters(redisClient *redis.Client, runID string, log *logger.Logger) *RunCounters {
	if log == nil {
		log = logger.Nop()
	}
	return &RunCounters{
		redis:  redisClient,
		runID:  runID,
		logger: log,
	}
}

// RunStatus progreso leído de Redis
type RunStatus struct {
	RunID    string           `json:"run_id"`
	Expected int64            `json:"expected"`
	Saved    int64            `json:"saved"`
	Failed   int64            `json:"failed"`
	Splits   map[string]int64 `json:"splits"`
	Ranges   int64            `json:"ranges_done"`
}

// Start registra cuántas muestras se esperan
func (rc *RunCounters) Start(ctx context.Context, expected int) error {
	if rc.redis == nil {
		return nil
	}
	pipe := rc.redis.Pipeline()
	pipe.HSet(ctx, rc.runKey(), "expected", expected, "started_at", time.Now().Unix())
	pipe.Expire(ctx, rc.runKey(), runTTL)
	_, err := pipe.Exec(ctx)
	return err
}

// IsSaved indica si el índice ya se guardó (reintento de una tarea)
func (rc *RunCounters) IsSaved(ctx context.Context, index int) (bool, error) {
	if rc.redis == nil {
		return false, nil
	}
	return rc.redis.SIsMember(ctx, rc.savedKey(), index).Result()
}

// MarkSaved registra una muestra guardada en su split. Los contadores sólo
// suben la primera vez que se registra el índice.
func (rc *RunCounters) MarkSaved(ctx context.Context, index int, split string) error {
	if rc.redis == nil {
		return nil
	}
	added, err := rc.redis.SAdd(ctx, rc.savedKey(), index).Result()
	if err != nil {
		return err
	}
	if added == 0 {
		return nil
	}
	pipe := rc.redis.Pipeline()
	pipe.HIncrBy(ctx, rc.runKey(), "saved", 1)
	pipe.HIncrBy(ctx, rc.runKey(), splitField(split), 1)
	pipe.Expire(ctx, rc.savedKey(), runTTL)
	pipe.Expire(ctx, rc.runKey(), runTTL)
	_, err = pipe.Exec(ctx)
	return err
}

// MarkFailed registra una muestra que no pudo generarse
func (rc *RunCounters) MarkFailed(ctx context.Context, index int) error {
	if rc.redis == nil {
		return nil
	}
	return rc.redis.HIncrBy(ctx, rc.runKey(), "failed", 1).Err()
}

// MarkRangeDone registra un rango completado
func (rc *RunCounters) MarkRangeDone(ctx context.Context) error {
	if rc.redis == nil {
		return nil
	}
	return rc.redis.HIncrBy(ctx, rc.runKey(), "ranges_done", 1).Err()
}

// Status lee el progreso de la corrida
func (rc *RunCounters) Status(ctx context.Context) (*RunStatus, error) {
	st := &RunStatus{RunID: rc.runID, Splits: make(map[string]int64)}
	if rc.redis == nil {
		return st, nil
	}

	fields, err := rc.redis.HGetAll(ctx, rc.runKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read run %s: %w", rc.runID, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("run %s not found", rc.runID)
	}
	return parseStatus(rc.runID, fields), nil
}

func parseStatus(runID string, fields map[string]string) *RunStatus {
	st := &RunStatus{RunID: runID, Splits: make(map[string]int64)}
	for k, v := range fields {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		switch k {
		case "expected":
			st.Expected = n
		case "saved":
			st.Saved = n
		case "failed":
			st.Failed = n
		case "ranges_done":
			st.Ranges = n
		default:
			if split, ok := splitFromField(k); ok {
				st.Splits[split] = n
			}
		}
	}
	return st
}

func (rc *RunCounters) runKey() string {
	return fmt.Sprintf("%s:%s", keyPrefix, rc.runID)
}

func (rc *RunCounters) savedKey() string {
	return fmt.Sprintf("%s:%s:saved", keyPrefix, rc.runID)
}

func splitField(split string) string {
	return "split:" + split
}

func splitFromField(field string) (string, bool) {
	split, ok := strings.CutPrefix(field, "split:")
	return split, ok && split != ""
}
