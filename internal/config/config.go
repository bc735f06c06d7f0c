package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig
	Database       DatabaseConfig
	Broker         BrokerConfig
	Logging        LoggingConfig
	Ingestion      IngestionConfig
	BodyStorage    BodyStorageConfig `mapstructure:"body_storage"`
	Enrichment     EnrichmentConfig
	Heartbeat      HeartbeatConfig
	API            APIConfig
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	Tracing        TracingConfig
}

type ServerConfig struct {
	Port                int           `mapstructure:"port"`
	ReadTimeoutSeconds  time.Duration `mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds time.Duration `mapstructure:"write_timeout_seconds"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig
	Redis         RedisConfig
	MongoDB       MongoDBConfig
	RunMigrations bool `mapstructure:"run_migrations"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MongoDBConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type BrokerConfig struct {
	Type  string      `mapstructure:"type"`
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers          []string `mapstructure:"brokers"`
	GroupID          string   `mapstructure:"group_id"`
	AuditTopic       string   `mapstructure:"audit_topic"`
	HeartbeatTopic   string   `mapstructure:"heartbeat_topic"`
	CustomCheckTopic string   `mapstructure:"custom_check_topic"`
	EventsTopic      string   `mapstructure:"events_topic"`
}

type LoggingConfig struct {
	Level   string `mapstructure:"level"`
	Format  string `mapstructure:"format"`
	LogPath string `mapstructure:"log_path"`
}

// IngestionConfig drives the satellite receivers and their recoverability.
type IngestionConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxConcurrency   int           `mapstructure:"max_concurrency"`
	MessageTimeout   time.Duration `mapstructure:"message_timeout"`
	ImmediateRetries int           `mapstructure:"immediate_retries"`
	DelayedRetries   int           `mapstructure:"delayed_retries"`
	DelayedInterval  time.Duration `mapstructure:"delayed_interval"`
	Retention        time.Duration `mapstructure:"retention"`
}

type BodyStorageConfig struct {
	MaxInlineSize        int    `mapstructure:"max_inline_size"`
	CompressionThreshold int    `mapstructure:"compression_threshold"`
	Compression          string `mapstructure:"compression"` // "zstd", "lz4", "none"
}

type EnrichmentConfig struct {
	Enrichers []string     `mapstructure:"enrichers"`
	Rules     []RuleConfig `mapstructure:"rules"`
}

type RuleConfig struct {
	Name       string `mapstructure:"name"`
	Target     string `mapstructure:"target"`
	Expression string `mapstructure:"expression"`
}

type HeartbeatConfig struct {
	GracePeriod   time.Duration `mapstructure:"grace_period"`
	Interval      time.Duration `mapstructure:"interval"`
	EvictionAfter time.Duration `mapstructure:"eviction_after"`
}

type APIConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

type RateLimitConfig struct {
	Enabled         bool    `mapstructure:"enabled"`
	RPS             float64 `mapstructure:"rps"`
	Burst           int     `mapstructure:"burst"`
	CleanupInterval int     `mapstructure:"cleanup_interval"`
	MaxAge          int     `mapstructure:"max_age"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

type TracingConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	ServiceName string        `mapstructure:"service_name"`
	OTLP        OTLPConfig    `mapstructure:"otlp"`
	Sampler     SamplerConfig `mapstructure:"sampler"`
}

type OTLPConfig struct {
	Endpoint string `mapstructure:"endpoint"`
	Insecure bool   `mapstructure:"insecure"`
}

type SamplerConfig struct {
	Type  string  `mapstructure:"type"`
	Param float64 `mapstructure:"param"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
