package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	DefaultAuditTopic       = "audit"
	DefaultHeartbeatTopic   = "heartbeats"
	DefaultCustomCheckTopic = "custom_checks"
	DefaultEventsTopic      = "monitoring_events"
)

const (
	DefaultMongoDBName = "auditwatch"

	CollectionProcessedMessages = "processed_messages"
	CollectionFailedImports     = "failed_imports"
)

const (
	CacheKeyPrefixBody = "body:"
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	DefaultMaxConcurrency   = 10
	DefaultMessageTimeout   = 30 * time.Second
	DefaultImmediateRetries = 3
	DefaultDelayedRetries   = 0
	DefaultDelayedInterval  = 10 * time.Second
	DefaultRetention        = 5 * 24 * time.Hour
)

const (
	DefaultGracePeriod   = 60 * time.Second
	DefaultSweepInterval = 5 * time.Second
)

const (
	DefaultMaxInlineBodySize    = 85000
	DefaultCompressionThreshold = 16 * 1024
	DefaultContentType          = "text/xml"
)

const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// Stage names scope the failed import directories and records.
const (
	StageAudit       = "Audit"
	StageHeartbeat   = "Heartbeat"
	StageCustomCheck = "CustomCheck"
)

const (
	FailedImportsDir = "FailedImports"
)

const (
	CompressionNone = "none"
	CompressionZstd = "zstd"
	CompressionLZ4  = "lz4"
)

const (
	ServiceNameAudit      = "audit-service"
	ServiceNameMonitoring = "monitoring-service"
)
