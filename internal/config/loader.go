package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"auditwatch/internal/constants"
)

func LoadConfig(configFile string) (*Config, error) {
	viper.Reset()

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configFile)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configFile, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("failed to apply environment overrides: %w", err)
	}

	if err := ValidateStatic(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout_seconds", "10s")
	viper.SetDefault("server.write_timeout_seconds", "10s")

	viper.SetDefault("broker.type", "kafka")
	viper.SetDefault("broker.kafka.audit_topic", constants.DefaultAuditTopic)
	viper.SetDefault("broker.kafka.heartbeat_topic", constants.DefaultHeartbeatTopic)
	viper.SetDefault("broker.kafka.custom_check_topic", constants.DefaultCustomCheckTopic)
	viper.SetDefault("broker.kafka.events_topic", constants.DefaultEventsTopic)

	viper.SetDefault("database.mongodb.database", constants.DefaultMongoDBName)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "json")
	viper.SetDefault("logging.log_path", "./logs")

	viper.SetDefault("ingestion.enabled", true)
	viper.SetDefault("ingestion.max_concurrency", constants.DefaultMaxConcurrency)
	viper.SetDefault("ingestion.message_timeout", constants.DefaultMessageTimeout)
	viper.SetDefault("ingestion.immediate_retries", constants.DefaultImmediateRetries)
	viper.SetDefault("ingestion.delayed_retries", constants.DefaultDelayedRetries)
	viper.SetDefault("ingestion.delayed_interval", constants.DefaultDelayedInterval)
	viper.SetDefault("ingestion.retention", constants.DefaultRetention)

	viper.SetDefault("body_storage.max_inline_size", constants.DefaultMaxInlineBodySize)
	viper.SetDefault("body_storage.compression_threshold", constants.DefaultCompressionThreshold)
	viper.SetDefault("body_storage.compression", constants.CompressionZstd)

	viper.SetDefault("heartbeat.grace_period", constants.DefaultGracePeriod)
	viper.SetDefault("heartbeat.interval", constants.DefaultSweepInterval)
}

func bindEnvVariables() {
	viper.BindEnv("broker.kafka.brokers", "BROKER_KAFKA_BROKERS")
	viper.BindEnv("broker.kafka.group_id", "BROKER_KAFKA_GROUP_ID")
	viper.BindEnv("broker.kafka.audit_topic", "BROKER_KAFKA_AUDIT_TOPIC")
	viper.BindEnv("broker.kafka.heartbeat_topic", "BROKER_KAFKA_HEARTBEAT_TOPIC")
	viper.BindEnv("broker.kafka.custom_check_topic", "BROKER_KAFKA_CUSTOM_CHECK_TOPIC")
	viper.BindEnv("broker.kafka.events_topic", "BROKER_KAFKA_EVENTS_TOPIC")

	viper.BindEnv("database.postgres.host", "DATABASE_POSTGRES_HOST")
	viper.BindEnv("database.postgres.port", "DATABASE_POSTGRES_PORT")
	viper.BindEnv("database.postgres.user", "DATABASE_POSTGRES_USER")
	viper.BindEnv("database.postgres.password", "DATABASE_POSTGRES_PASSWORD")
	viper.BindEnv("database.postgres.dbname", "DATABASE_POSTGRES_DBNAME")
	viper.BindEnv("database.postgres.sslmode", "DATABASE_POSTGRES_SSLMODE")

	viper.BindEnv("database.redis.host", "DATABASE_REDIS_HOST")
	viper.BindEnv("database.redis.port", "DATABASE_REDIS_PORT")
	viper.BindEnv("database.redis.password", "DATABASE_REDIS_PASSWORD")
	viper.BindEnv("database.redis.db", "DATABASE_REDIS_DB")

	viper.BindEnv("database.mongodb.uri", "DATABASE_MONGODB_URI")
	viper.BindEnv("database.mongodb.database", "DATABASE_MONGODB_DATABASE")

	viper.BindEnv("server.port", "SERVER_PORT")

	viper.BindEnv("logging.level", "LOGGING_LEVEL")
	viper.BindEnv("logging.format", "LOGGING_FORMAT")
	viper.BindEnv("logging.log_path", "LOGGING_LOG_PATH")

	viper.BindEnv("ingestion.max_concurrency", "INGESTION_MAX_CONCURRENCY")
	viper.BindEnv("heartbeat.grace_period", "HEARTBEAT_GRACE_PERIOD")

	viper.BindEnv("tracing.otlp.endpoint", "TRACING_OTLP_ENDPOINT")
	viper.BindEnv("tracing.otlp.insecure", "TRACING_OTLP_INSECURE")
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.service_name", "TRACING_SERVICE_NAME")
}

func applyEnvOverrides(cfg *Config) error {
	if brokersEnv := viper.GetString("BROKER_KAFKA_BROKERS"); brokersEnv != "" {
		brokers := strings.Split(brokersEnv, ",")
		for i := range brokers {
			brokers[i] = strings.TrimSpace(brokers[i])
		}
		if len(brokers) > 0 && brokers[0] != "" {
			cfg.Broker.Kafka.Brokers = brokers
		}
	}

	if otlpEndpoint := viper.GetString("TRACING_OTLP_ENDPOINT"); otlpEndpoint != "" {
		cfg.Tracing.OTLP.Endpoint = otlpEndpoint
	}

	return nil
}
