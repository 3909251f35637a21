package config

import (
	"os"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	postgres_wrapper "github.com/joripage/matching-engine/pkg/infra/postgres"
	redis_wrapper "github.com/joripage/matching-engine/pkg/infra/redis"
)

type KafkaConfig struct {
	Brokers        []string `yaml:"brokers"`
	ExecutionTopic string   `yaml:"execution_topic"`
	ConsumerGroup  string   `yaml:"consumer_group"`
	BatchSize      int      `yaml:"batch_size"`
	BatchTimeoutMs int64    `yaml:"batch_timeout_ms"`
}

// BatchTimeout returns the producer flush interval.
func (c *KafkaConfig) BatchTimeout() time.Duration {
	return time.Duration(c.BatchTimeoutMs) * time.Millisecond
}

type FixConfig struct {
	SettingsFile string `yaml:"settings_file"`
}

type EngineConfig struct {
	StopCheckIntervalMs  int64 `yaml:"stop_check_interval_ms"`
	SubmitRetryMaxElapMs int64 `yaml:"submit_retry_max_elapsed_ms"`
}

type AppConfig struct {
	ServiceName string                           `yaml:"service_name"`
	LogLevel    string                           `yaml:"log_level"`
	PprofAddr   string                           `yaml:"pprof_addr"`
	EngineDB    *postgres_wrapper.PostgresConfig `yaml:"engine_db"`
	Redis       *redis_wrapper.RedisConfig       `yaml:"redis"`
	Kafka       *KafkaConfig                     `yaml:"kafka"`
	Fix         *FixConfig                       `yaml:"fix"`
	Engine      *EngineConfig                    `yaml:"engine"`
}

// Load reads config from file, expanding ${ENV} references before parsing.
func Load(filePath string) (*AppConfig, error) {
	if len(filePath) == 0 {
		filePath = os.Getenv("CONFIG_FILE")
	}

	sugar := zap.S().With("func", "config.Load", "filePath", filePath)
	sugar.Debug("load config...")

	configBytes, err := os.ReadFile(filePath)
	if err != nil {
		sugar.Error("failed to load config file")
		return nil, err
	}
	configBytes = []byte(os.ExpandEnv(string(configBytes)))

	cfg := &AppConfig{}
	if err := yaml.Unmarshal(configBytes, cfg); err != nil {
		sugar.Error("failed to parse config file")
		return nil, err
	}

	return cfg, nil
}

// StopCheckInterval returns the monitor scan interval with a sane default.
func (c *AppConfig) StopCheckInterval() time.Duration {
	if c.Engine == nil || c.Engine.StopCheckIntervalMs <= 0 {
		return 500 * time.Millisecond
	}
	return time.Duration(c.Engine.StopCheckIntervalMs) * time.Millisecond
}

// SubmitRetryMaxElapsed returns the max elapsed time for submit retries.
func (c *AppConfig) SubmitRetryMaxElapsed() time.Duration {
	if c.Engine == nil || c.Engine.SubmitRetryMaxElapMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.Engine.SubmitRetryMaxElapMs) * time.Millisecond
}
