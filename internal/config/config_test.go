package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auditwatch/internal/constants"
)

const minimalYAML = `
server:
  port: 8081
broker:
  type: kafka
  kafka:
    brokers: ["localhost:9092"]
    group_id: audit-ingestion
database:
  mongodb:
    uri: mongodb://localhost:27017
  redis:
    host: localhost
    port: 6379
logging:
  level: debug
  log_path: /tmp/auditwatch
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, constants.DefaultAuditTopic, cfg.Broker.Kafka.AuditTopic)
	assert.Equal(t, constants.DefaultEventsTopic, cfg.Broker.Kafka.EventsTopic)
	assert.Equal(t, constants.DefaultMongoDBName, cfg.Database.MongoDB.Database)
	assert.Equal(t, constants.DefaultMaxConcurrency, cfg.Ingestion.MaxConcurrency)
	assert.Equal(t, constants.DefaultImmediateRetries, cfg.Ingestion.ImmediateRetries)
	assert.Equal(t, 0, cfg.Ingestion.DelayedRetries)
	assert.Equal(t, 5*24*time.Hour, cfg.Ingestion.Retention)
	assert.Equal(t, 60*time.Second, cfg.Heartbeat.GracePeriod)
	assert.Equal(t, 5*time.Second, cfg.Heartbeat.Interval)
	assert.Equal(t, constants.CompressionZstd, cfg.BodyStorage.Compression)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "/tmp/auditwatch", cfg.Logging.LogPath)
}

func TestLoadConfig_Overrides(t *testing.T) {
	body := minimalYAML + `
ingestion:
  max_concurrency: 4
  immediate_retries: 1
  delayed_retries: 2
  delayed_interval: 1s
heartbeat:
  grace_period: 30s
  interval: 1s
  eviction_after: 10m
body_storage:
  compression: lz4
enrichment:
  enrichers: [message_type, rules]
  rules:
    - name: tenant
      target: Tenant
      expression: 'headers["Tenant"]'
`
	cfg, err := LoadConfig(writeConfig(t, body))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Ingestion.MaxConcurrency)
	assert.Equal(t, 2, cfg.Ingestion.DelayedRetries)
	assert.Equal(t, time.Second, cfg.Ingestion.DelayedInterval)
	assert.Equal(t, 30*time.Second, cfg.Heartbeat.GracePeriod)
	assert.Equal(t, 10*time.Minute, cfg.Heartbeat.EvictionAfter)
	assert.Equal(t, constants.CompressionLZ4, cfg.BodyStorage.Compression)
	assert.Equal(t, []string{"message_type", "rules"}, cfg.Enrichment.Enrichers)
	require.Len(t, cfg.Enrichment.Rules, 1)
	assert.Equal(t, "Tenant", cfg.Enrichment.Rules[0].Target)
}

func TestLoadConfig_BrokersFromEnv(t *testing.T) {
	t.Setenv("BROKER_KAFKA_BROKERS", "k1:9092, k2:9092")

	cfg, err := LoadConfig(writeConfig(t, minimalYAML))
	require.NoError(t, err)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Broker.Kafka.Brokers)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, ReadTimeoutSeconds: time.Second, WriteTimeoutSeconds: time.Second},
		Broker: BrokerConfig{Type: "kafka", Kafka: KafkaConfig{
			Brokers:          []string{"localhost:9092"},
			GroupID:          "g",
			AuditTopic:       "audit",
			HeartbeatTopic:   "heartbeats",
			CustomCheckTopic: "custom_checks",
			EventsTopic:      "events",
		}},
		Logging: LoggingConfig{Level: "info", Format: "json", LogPath: "./logs"},
		Ingestion: IngestionConfig{
			MaxConcurrency: 1,
			MessageTimeout: time.Second,
			Retention:      time.Hour,
		},
		BodyStorage: BodyStorageConfig{Compression: constants.CompressionNone},
		Heartbeat:   HeartbeatConfig{GracePeriod: time.Minute, Interval: time.Second},
	}
}

func TestValidateStatic(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{
			name:    "unknown broker",
			mutate:  func(c *Config) { c.Broker.Type = "rabbitmq" },
			wantErr: "broker.type",
		},
		{
			name:    "empty audit topic",
			mutate:  func(c *Config) { c.Broker.Kafka.AuditTopic = " " },
			wantErr: "broker.kafka.audit_topic",
		},
		{
			name:    "zero concurrency",
			mutate:  func(c *Config) { c.Ingestion.MaxConcurrency = 0 },
			wantErr: "ingestion.max_concurrency",
		},
		{
			name:    "delayed retries without interval",
			mutate:  func(c *Config) { c.Ingestion.DelayedRetries = 1 },
			wantErr: "ingestion.delayed_interval",
		},
		{
			name:    "bad compression",
			mutate:  func(c *Config) { c.BodyStorage.Compression = "gzip" },
			wantErr: "body_storage.compression",
		},
		{
			name:    "zero grace period",
			mutate:  func(c *Config) { c.Heartbeat.GracePeriod = 0 },
			wantErr: "heartbeat.grace_period",
		},
		{
			name:    "eviction shorter than grace",
			mutate:  func(c *Config) { c.Heartbeat.EvictionAfter = time.Second },
			wantErr: "heartbeat.eviction_after",
		},
		{
			name:    "rule without expression",
			mutate:  func(c *Config) { c.Enrichment.Rules = []RuleConfig{{Name: "r", Target: "T"}} },
			wantErr: "enrichment.rules[0].expression",
		},
		{
			name:    "missing log path",
			mutate:  func(c *Config) { c.Logging.LogPath = "" },
			wantErr: "logging.log_path",
		},
		{
			name:    "bad mongo uri",
			mutate:  func(c *Config) { c.Database.MongoDB = MongoDBConfig{URI: "http://x", Database: "d"} },
			wantErr: "database.mongodb.uri",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := ValidateStatic(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
