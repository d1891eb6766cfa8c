package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Trigger kinds accepted by WORKFLOW_TRIGGER.
const (
	TriggerStepFunctions = "sfn"
	TriggerTemporal      = "temporal"
	TriggerRedis         = "redis"
)

// Config holds the runtime settings shared by every entry point.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`

	ProbeTimeout time.Duration `env:"LOADER_PROBE_TIMEOUT" envDefault:"3s"`
	LoadTimeout  time.Duration `env:"LOADER_LOAD_TIMEOUT" envDefault:"30s"`

	// SSMPath, when set, names a Parameter Store path whose parameters
	// overlay the process environment for the deployment keys.
	SSMPath string `env:"DEPLOYMENT_SSM_PATH"`
	Region  string `env:"AWS_REGION"`

	Trigger           string `env:"WORKFLOW_TRIGGER" envDefault:"sfn"`
	TemporalHost      string `env:"TEMPORAL_HOST" envDefault:"localhost:7233"`
	TemporalNamespace string `env:"TEMPORAL_NAMESPACE" envDefault:"default"`
	TemporalTaskQueue string `env:"TEMPORAL_TASK_QUEUE" envDefault:"rdf-load"`
	RedisURL          string `env:"REDIS_URL" envDefault:"redis://127.0.0.1:6379/0"`
}

// ConsumerConfig holds the settings of the Kafka consumer service.
type ConsumerConfig struct {
	Config

	KafkaBrokers []string `env:"KAFKA_BROKERS,notEmpty" envSeparator:","`
	KafkaTopic   string   `env:"KAFKA_TOPIC" envDefault:"rdf-notifications"`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"rdf-loader"`

	// KafkaRetryTopic receives notifications whose load had a retriable
	// result; the consumer group reads it alongside KafkaTopic.
	KafkaRetryTopic string        `env:"KAFKA_RETRY_TOPIC" envDefault:"rdf-notifications-retry"`
	RetryDelay      time.Duration `env:"RETRY_DELAY" envDefault:"30s"`

	ElasticURLs  []string `env:"ELASTIC_URLS,notEmpty" envSeparator:","`
	ElasticIndex string   `env:"ELASTIC_INDEX" envDefault:"rdf-loads"`
	WorkerCount  int      `env:"WORKER_COUNT" envDefault:"5"`

	// LoaderRateLimit caps load submissions per second; zero disables it.
	LoaderRateLimit float64 `env:"LOADER_RATE_LIMIT" envDefault:"2"`
	MetricsAddr     string  `env:"METRICS_ADDR" envDefault:":9090"`
}

// Load parses environment variables into Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConsumer parses environment variables into ConsumerConfig.
func LoadConsumer() (*ConsumerConfig, error) {
	var cfg ConsumerConfig
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 1
	}
	if cfg.LoaderRateLimit < 0 {
		cfg.LoaderRateLimit = 0
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Trigger {
	case TriggerStepFunctions, TriggerTemporal, TriggerRedis:
	default:
		return fmt.Errorf("unknown WORKFLOW_TRIGGER %q", c.Trigger)
	}
	if c.ProbeTimeout <= 0 {
		return fmt.Errorf("LOADER_PROBE_TIMEOUT must be positive")
	}
	if c.LoadTimeout <= 0 {
		return fmt.Errorf("LOADER_LOAD_TIMEOUT must be positive")
	}
	return nil
}
