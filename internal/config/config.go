package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config estructura principal de configuración del proceso
type Config struct {
	Environment string `json:"environment"`

	// Logging
	Log LogConfig `json:"log"`

	// Generación del dataset
	Generation GenerationConfig `json:"generation"`

	// Redis (cola asynq y contadores por corrida)
	Redis RedisConfig `json:"redis"`

	// Cola de generación distribuida
	Queue QueueConfig `json:"queue"`

	// Endpoint de métricas del worker
	Metrics MetricsConfig `json:"metrics"`
}

type LogConfig struct {
	Level  string `json:"level"`
	Format string `json:"format"`
}

type GenerationConfig struct {
	OutputDir         string `json:"output_dir"`
	ReceiptConfigPath string `json:"receipt_config_path"`
	Seed              int64  `json:"seed"`
	Count             int    `json:"count"`
	StartIndex        int    `json:"start_index"`
	Workers           int    `json:"workers"`
	RangeSize         int    `json:"range_size"`
	MaxAttempts       int    `json:"max_attempts"`
}

type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	Password string `json:"-"` // No exponer
	DB       int    `json:"db"`
}

type QueueConfig struct {
	Name        string `json:"name"`
	Concurrency int    `json:"concurrency"`
	MaxRetries  int    `json:"max_retries"`
}

type MetricsConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

// Load carga la configuración desde variables de entorno
func Load() (*Config, error) {
	// .env es opcional
	_ = godotenv.Load(".env")

	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),

		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},

		Generation: GenerationConfig{
			OutputDir:         getEnv("OUTPUT_DIR", "output"),
			ReceiptConfigPath: getEnv("RECEIPT_CONFIG", ""),
			Seed:              getEnvInt64("SEED", 42),
			Count:             getEnvInt("COUNT", 100),
			StartIndex:        getEnvInt("START_INDEX", 0),
			Workers:           getEnvInt("WORKERS", 1),
			RangeSize:         getEnvInt("RANGE_SIZE", 50),
			MaxAttempts:       getEnvInt("MAX_ATTEMPTS", 5),
		},

		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},

		Queue: QueueConfig{
			Name:        getEnv("QUEUE_NAME", "receipts"),
			Concurrency: getEnvInt("QUEUE_CONCURRENCY", 4),
			MaxRetries:  getEnvInt("QUEUE_MAX_RETRIES", 3),
		},

		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Port:    getEnvInt("METRICS_PORT", 9090),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate valida la configuración
func (c *Config) Validate() error {
	if c.Generation.OutputDir == "" {
		return fmt.Errorf("OUTPUT_DIR is required")
	}
	if c.Generation.Count < 0 {
		return fmt.Errorf("COUNT must be >= 0, got %d", c.Generation.Count)
	}
	if c.Generation.StartIndex < 0 {
		return fmt.Errorf("START_INDEX must be >= 0, got %d", c.Generation.StartIndex)
	}
	if c.Generation.Workers < 1 {
		return fmt.Errorf("WORKERS must be >= 1, got %d", c.Generation.Workers)
	}
	if c.Generation.RangeSize < 1 {
		return fmt.Errorf("RANGE_SIZE must be >= 1, got %d", c.Generation.RangeSize)
	}
	if c.Generation.MaxAttempts < 1 {
		return fmt.Errorf("MAX_ATTEMPTS must be >= 1, got %d", c.Generation.MaxAttempts)
	}
	if c.Queue.Concurrency < 1 {
		return fmt.Errorf("QUEUE_CONCURRENCY must be >= 1, got %d", c.Queue.Concurrency)
	}
	if c.Metrics.Enabled && (c.Metrics.Port <= 0 || c.Metrics.Port > 65535) {
		return fmt.Errorf("METRICS_PORT out of range: %d", c.Metrics.Port)
	}
	return nil
}

// RedisAddr retorna host:port
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Redis.Host, c.Redis.Port)
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
