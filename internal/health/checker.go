package health

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Roch-git/Synth-Receipt-Generator/pkg/logger"
)

// Checker realiza health checks del worker
type Checker struct {
	logger    *logger.Logger
	redis     *redis.Client
	outputDir string
	timeout   time.Duration
}

// NewChecker crea un nuevo health checker. redisClient puede ser nil.
func NewChecker(log *logger.Logger, redisClient *redis.Client, outputDir string) *Checker {
	return &Checker{
		logger:    log,
		redis:     redisClient,
		outputDir: outputDir,
		timeout:   5 * time.Second,
	}
}

// HealthStatus estado de salud del worker
type HealthStatus struct {
	Status    string                 `json:"status"` // healthy, unhealthy
	Timestamp time.Time              `json:"timestamp"`
	Uptime    float64                `json:"uptime_seconds"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult resultado de un check individual
type CheckResult struct {
	Status   string  `json:"status"` // pass, fail
	Duration float64 `json:"duration_ms"`
	Message  string  `json:"message,omitempty"`
	Error    string  `json:"error,omitempty"`
}

var startTime = time.Now()

// Healthy indica si todos los checks pasaron
func (s *HealthStatus) Healthy() bool {
	return s.Status == "healthy"
}

// ReadinessProbe verifica Redis y que el directorio de salida sea escribible
func (hc *Checker) ReadinessProbe(ctx context.Context) *HealthStatus {
	status := &HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now(),
		Uptime:    time.Since(startTime).Seconds(),
		Checks:    make(map[string]CheckResult),
	}

	if hc.redis != nil {
		status.Checks["redis"] = hc.checkRedis(ctx)
	}
	if hc.outputDir != "" {
		status.Checks["output_dir"] = hc.checkOutputDir()
	}

	for name, c := range status.Checks {
		if c.Status != "pass" {
			status.Status = "unhealthy"
			hc.logger.Warnw("Health check failed", "check", name, "error", c.Error)
		}
	}
	return status
}

func (hc *Checker) checkRedis(ctx context.Context) CheckResult {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, hc.timeout)
	defer cancel()

	if err := hc.redis.Ping(ctx).Err(); err != nil {
		return CheckResult{
			Status:   "fail",
			Duration: ms(time.Since(start)),
			Error:    err.Error(),
		}
	}
	return CheckResult{
		Status:   "pass",
		Duration: ms(time.Since(start)),
		Message:  "Redis is reachable",
	}
}

// checkOutputDir crea y borra un archivo temporal en el directorio de salida
func (hc *Checker) checkOutputDir() CheckResult {
	start := time.Now()
	fail := func(err error) CheckResult {
		return CheckResult{Status: "fail", Duration: ms(time.Since(start)), Error: err.Error()}
	}

	if err := os.MkdirAll(hc.outputDir, 0o755); err != nil {
		return fail(fmt.Errorf("cannot create output dir: %w", err))
	}
	f, err := os.CreateTemp(hc.outputDir, ".health-*")
	if err != nil {
		return fail(fmt.Errorf("output dir not writable: %w", err))
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	return CheckResult{
		Status:   "pass",
		Duration: ms(time.Since(start)),
		Message:  "Output directory is writable",
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000
}
