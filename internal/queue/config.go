package queue

import (
	"github.com/hibiken/asynq"

	"github.com/Roch-git/Synth-Receipt-Generator/internal/config"
)

// Config configuración para la cola de rangos
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Concurrency rangos simultáneos por worker
	Concurrency int

	// Retry
	MaxRetries int

	// Queue nombre de la cola
	Queue string
}

// LoadConfig carga configuración desde config principal
func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		RedisAddr:     cfg.RedisAddr(),
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.DB,
		Concurrency:   cfg.Queue.Concurrency,
		MaxRetries:    cfg.Queue.MaxRetries,
		Queue:         cfg.Queue.Name,
	}
}

// RedisOpt opciones de conexión para asynq
func (c *Config) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.RedisAddr,
		Password: c.RedisPassword,
		DB:       c.RedisDB,
	}
}

// NewClient crea un cliente Asynq para encolar rangos
func NewClient(cfg *Config) *asynq.Client {
	return asynq.NewClient(cfg.RedisOpt())
}

// NewServer crea un servidor Asynq para procesar rangos
func NewServer(cfg *Config, policy *RetryPolicy) *asynq.Server {
	return asynq.NewServer(
		cfg.RedisOpt(),
		asynq.Config{
			Concurrency:    cfg.Concurrency,
			Queues:         map[string]int{cfg.Queue: 1},
			RetryDelayFunc: policy.AsynqRetryDelayFunc(),
			LogLevel:       asynq.InfoLevel,
		},
	)
}
