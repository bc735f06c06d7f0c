package config

import (
	"fmt"
	"strings"

	"auditwatch/internal/constants"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
}

func ValidateStatic(cfg *Config) error {
	var errors []error

	if err := validateServer(cfg.Server); err != nil {
		errors = append(errors, err)
	}

	if err := validateBroker(cfg.Broker); err != nil {
		errors = append(errors, err)
	}

	if err := validateDatabase(cfg.Database); err != nil {
		errors = append(errors, err)
	}

	if err := validateLogging(cfg.Logging); err != nil {
		errors = append(errors, err)
	}

	if err := validateIngestion(cfg.Ingestion); err != nil {
		errors = append(errors, err)
	}

	if err := validateBodyStorage(cfg.BodyStorage); err != nil {
		errors = append(errors, err)
	}

	if err := validateEnrichment(cfg.Enrichment); err != nil {
		errors = append(errors, err)
	}

	if err := validateHeartbeat(cfg.Heartbeat); err != nil {
		errors = append(errors, err)
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed: %v", errors)
	}

	return nil
}

func validateServer(cfg ServerConfig) error {
	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.ReadTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.read_timeout_seconds",
			Message: "read timeout must be positive",
		}
	}

	if cfg.WriteTimeoutSeconds <= 0 {
		return &ValidationError{
			Field:   "server.write_timeout_seconds",
			Message: "write timeout must be positive",
		}
	}

	return nil
}

func validateBroker(cfg BrokerConfig) error {
	if cfg.Type == "" {
		return &ValidationError{
			Field:   "broker.type",
			Message: "broker type is required",
		}
	}

	switch cfg.Type {
	case "kafka":
		return validateKafka(cfg.Kafka)
	default:
		return &ValidationError{
			Field:   "broker.type",
			Message: fmt.Sprintf("unknown broker type: %s (supported: kafka)", cfg.Type),
		}
	}
}

func validateKafka(cfg KafkaConfig) error {
	if len(cfg.Brokers) == 0 {
		return &ValidationError{
			Field:   "broker.kafka.brokers",
			Message: "at least one Kafka broker is required",
		}
	}

	for i, broker := range cfg.Brokers {
		if broker == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("broker.kafka.brokers[%d]", i),
				Message: "broker address cannot be empty",
			}
		}
	}

	if cfg.GroupID == "" {
		return &ValidationError{
			Field:   "broker.kafka.group_id",
			Message: "Kafka consumer group ID is required",
		}
	}

	topics := map[string]string{
		"broker.kafka.audit_topic":        cfg.AuditTopic,
		"broker.kafka.heartbeat_topic":    cfg.HeartbeatTopic,
		"broker.kafka.custom_check_topic": cfg.CustomCheckTopic,
		"broker.kafka.events_topic":       cfg.EventsTopic,
	}
	for field, topic := range topics {
		if strings.TrimSpace(topic) == "" {
			return &ValidationError{
				Field:   field,
				Message: "topic name cannot be empty",
			}
		}
	}

	return nil
}

func validateDatabase(cfg DatabaseConfig) error {
	if cfg.Postgres.Host != "" || cfg.Postgres.Port > 0 {
		if err := validatePostgres(cfg.Postgres); err != nil {
			return err
		}
	}

	if cfg.Redis.Host != "" || cfg.Redis.Port > 0 {
		if err := validateRedis(cfg.Redis); err != nil {
			return err
		}
	}

	if cfg.MongoDB.URI != "" {
		if err := validateMongoDB(cfg.MongoDB); err != nil {
			return err
		}
	}

	return nil
}

func validatePostgres(cfg PostgresConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "database.postgres.host",
			Message: "PostgreSQL host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "database.postgres.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.User == "" {
		return &ValidationError{
			Field:   "database.postgres.user",
			Message: "PostgreSQL user is required",
		}
	}

	if cfg.DBName == "" {
		return &ValidationError{
			Field:   "database.postgres.dbname",
			Message: "PostgreSQL database name is required",
		}
	}

	validSSLModes := map[string]bool{
		"disable": true, "allow": true, "prefer": true,
		"require": true, "verify-ca": true, "verify-full": true,
	}
	if cfg.SSLMode != "" && !validSSLModes[strings.ToLower(cfg.SSLMode)] {
		return &ValidationError{
			Field:   "database.postgres.sslmode",
			Message: fmt.Sprintf("invalid SSL mode: %s (valid: disable, allow, prefer, require, verify-ca, verify-full)", cfg.SSLMode),
		}
	}

	return nil
}

func validateRedis(cfg RedisConfig) error {
	if cfg.Host == "" {
		return &ValidationError{
			Field:   "database.redis.host",
			Message: "Redis host is required",
		}
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return &ValidationError{
			Field:   "database.redis.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", cfg.Port),
		}
	}

	if cfg.DB < 0 {
		return &ValidationError{
			Field:   "database.redis.db",
			Message: "db index must be non-negative",
		}
	}

	return nil
}

func validateMongoDB(cfg MongoDBConfig) error {
	if !strings.HasPrefix(cfg.URI, "mongodb://") && !strings.HasPrefix(cfg.URI, "mongodb+srv://") {
		return &ValidationError{
			Field:   "database.mongodb.uri",
			Message: "MongoDB URI must start with mongodb:// or mongodb+srv://",
		}
	}

	if cfg.Database == "" {
		return &ValidationError{
			Field:   "database.mongodb.database",
			Message: "MongoDB database name is required",
		}
	}

	return nil
}

func validateLogging(cfg LoggingConfig) error {
	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if cfg.Level != "" && !validLevels[strings.ToLower(cfg.Level)] {
		return &ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid log level: %s (valid: debug, info, warn, error)", cfg.Level),
		}
	}

	if cfg.Format != "" && cfg.Format != "json" && cfg.Format != "console" {
		return &ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid log format: %s (valid: json, console)", cfg.Format),
		}
	}

	if cfg.LogPath == "" {
		return &ValidationError{
			Field:   "logging.log_path",
			Message: "log path is required for failed import capture",
		}
	}

	return nil
}

func validateIngestion(cfg IngestionConfig) error {
	if cfg.MaxConcurrency < 1 {
		return &ValidationError{
			Field:   "ingestion.max_concurrency",
			Message: fmt.Sprintf("max_concurrency must be at least 1, got %d", cfg.MaxConcurrency),
		}
	}

	if cfg.MessageTimeout <= 0 {
		return &ValidationError{
			Field:   "ingestion.message_timeout",
			Message: "message timeout must be positive",
		}
	}

	if cfg.ImmediateRetries < 0 {
		return &ValidationError{
			Field:   "ingestion.immediate_retries",
			Message: "immediate_retries must be non-negative",
		}
	}

	if cfg.DelayedRetries < 0 {
		return &ValidationError{
			Field:   "ingestion.delayed_retries",
			Message: "delayed_retries must be non-negative",
		}
	}

	if cfg.DelayedRetries > 0 && cfg.DelayedInterval <= 0 {
		return &ValidationError{
			Field:   "ingestion.delayed_interval",
			Message: "delayed_interval must be positive when delayed retries are enabled",
		}
	}

	if cfg.Retention <= 0 {
		return &ValidationError{
			Field:   "ingestion.retention",
			Message: "retention must be positive",
		}
	}

	return nil
}

func validateBodyStorage(cfg BodyStorageConfig) error {
	if cfg.MaxInlineSize < 0 {
		return &ValidationError{
			Field:   "body_storage.max_inline_size",
			Message: "max_inline_size must be non-negative",
		}
	}

	if cfg.CompressionThreshold < 0 {
		return &ValidationError{
			Field:   "body_storage.compression_threshold",
			Message: "compression_threshold must be non-negative",
		}
	}

	switch cfg.Compression {
	case "", constants.CompressionNone, constants.CompressionZstd, constants.CompressionLZ4:
	default:
		return &ValidationError{
			Field:   "body_storage.compression",
			Message: fmt.Sprintf("invalid compression: %s (valid: none, zstd, lz4)", cfg.Compression),
		}
	}

	return nil
}

func validateEnrichment(cfg EnrichmentConfig) error {
	for i, rule := range cfg.Rules {
		if rule.Target == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("enrichment.rules[%d].target", i),
				Message: "rule target metadata key is required",
			}
		}
		if rule.Expression == "" {
			return &ValidationError{
				Field:   fmt.Sprintf("enrichment.rules[%d].expression", i),
				Message: "rule expression is required",
			}
		}
	}

	return nil
}

func validateHeartbeat(cfg HeartbeatConfig) error {
	if cfg.GracePeriod <= 0 {
		return &ValidationError{
			Field:   "heartbeat.grace_period",
			Message: "grace period must be positive",
		}
	}

	if cfg.Interval <= 0 {
		return &ValidationError{
			Field:   "heartbeat.interval",
			Message: "sweep interval must be positive",
		}
	}

	if cfg.EvictionAfter < 0 {
		return &ValidationError{
			Field:   "heartbeat.eviction_after",
			Message: "eviction_after must be non-negative",
		}
	}

	if cfg.EvictionAfter > 0 && cfg.EvictionAfter < cfg.GracePeriod {
		return &ValidationError{
			Field:   "heartbeat.eviction_after",
			Message: "eviction_after must be greater than or equal to grace_period",
		}
	}

	return nil
}
