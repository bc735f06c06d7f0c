package metrics

import (
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	AuditMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_messages_total",
			Help: "Total number of audit messages handled by the importer (count)",
		},
		[]string{"status"},
	)

	AuditIngestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audit_ingest_duration_ms",
			Help:    "Duration of a single audit ingestion attempt in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"status"},
	)

	EnricherDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audit_enricher_duration_ms",
			Help:    "Duration of each enricher in milliseconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100},
		},
		[]string{"enricher"},
	)

	BodySizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "audit_body_size_bytes",
			Help:    "Size of stored message bodies in bytes, before and after compression",
			Buckets: []float64{100, 1000, 10000, 85000, 250000, 1000000, 5000000},
		},
		[]string{"compression", "phase"},
	)

	InFlightMessages = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ingestion_in_flight_messages",
			Help: "Messages currently owned by a receiver worker (count)",
		},
		[]string{"stage"},
	)

	RecoverabilityDecisionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recoverability_decisions_total",
			Help: "Total number of recoverability decisions (count)",
		},
		[]string{"stage", "action"},
	)

	FailedImportsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "failed_imports_total",
			Help: "Total number of failed import captures by destination (count)",
		},
		[]string{"stage", "destination", "status"},
	)

	HeartbeatEndpoints = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "heartbeat_endpoints",
			Help: "Number of monitored endpoint instances by liveness (count)",
		},
		[]string{"status"},
	)

	HeartbeatEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "heartbeat_events_total",
			Help: "Total number of heartbeat events published (count)",
		},
		[]string{"event"},
	)

	HeartbeatSweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "heartbeat_sweep_duration_ms",
			Help:    "Duration of one liveness sweep in milliseconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 50, 100, 500},
		},
	)

	CustomCheckEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "custom_check_events_total",
			Help: "Total number of custom check transitions published (count)",
		},
		[]string{"status"},
	)

	EventLogItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "event_log_items_total",
			Help: "Total number of event log items recorded (count)",
		},
		[]string{"category", "status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	KafkaMessagesReadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_read_total",
			Help: "Total number of messages read from Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"service", "topic"},
	)

	KafkaMessageSizeBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_message_size_bytes",
			Help:    "Size of Kafka messages in bytes",
			Buckets: []float64{100, 500, 1000, 5000, 10000, 50000, 100000, 500000},
		},
		[]string{"service", "topic", "direction"},
	)

	KafkaCommittedOffset = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "kafka_committed_offset",
			Help: "Last offset committed per partition (offset)",
		},
		[]string{"service", "topic", "partition"},
	)

	KafkaWriteDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_write_duration_ms",
			Help:    "Duration of writing messages to Kafka in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		},
		[]string{"service", "topic"},
	)

	DatabaseQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "database_queries_total",
			Help: "Total number of database queries (count)",
		},
		[]string{"service", "database", "operation", "status"},
	)

	DatabaseQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "database_query_duration_ms",
			Help:    "Duration of database queries in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"service", "database", "operation"},
	)
)

var (
	auditOnce, monitoringOnce, brokerOnce, cbOnce, apiOnce, dbOnce sync.Once
)

func RegisterAuditMetrics() {
	auditOnce.Do(func() {
		prometheus.MustRegister(AuditMessagesTotal)
		prometheus.MustRegister(AuditIngestDuration)
		prometheus.MustRegister(EnricherDuration)
		prometheus.MustRegister(BodySizeBytes)
		prometheus.MustRegister(InFlightMessages)
		prometheus.MustRegister(RecoverabilityDecisionsTotal)
		prometheus.MustRegister(FailedImportsTotal)
	})
}

func RegisterMonitoringMetrics() {
	monitoringOnce.Do(func() {
		prometheus.MustRegister(HeartbeatEndpoints)
		prometheus.MustRegister(HeartbeatEventsTotal)
		prometheus.MustRegister(HeartbeatSweepDuration)
		prometheus.MustRegister(CustomCheckEventsTotal)
		prometheus.MustRegister(EventLogItemsTotal)
	})
	RegisterAuditMetrics()
}

func RegisterBrokerMetrics() {
	brokerOnce.Do(func() {
		prometheus.MustRegister(KafkaMessagesReadTotal)
		prometheus.MustRegister(KafkaMessagesWrittenTotal)
		prometheus.MustRegister(KafkaMessageSizeBytes)
		prometheus.MustRegister(KafkaCommittedOffset)
		prometheus.MustRegister(KafkaWriteDuration)
	})
}

func RegisterCircuitBreakerMetrics() {
	cbOnce.Do(func() {
		prometheus.MustRegister(CircuitBreakerState)
		prometheus.MustRegister(CircuitBreakerRequests)
		prometheus.MustRegister(CircuitBreakerFailures)
	})
}

func RegisterAPIMetrics() {
	apiOnce.Do(func() {
		prometheus.MustRegister(RateLimitRequestsTotal)
	})
}

func RegisterDatabaseMetrics() {
	dbOnce.Do(func() {
		prometheus.MustRegister(DatabaseQueriesTotal)
		prometheus.MustRegister(DatabaseQueryDuration)
	})
}

func ObserveAuditIngest(duration time.Duration, status string) {
	AuditIngestDuration.WithLabelValues(status).Observe(float64(duration.Milliseconds()))
	AuditMessagesTotal.WithLabelValues(status).Inc()
}

func ObserveEnricher(name string, duration time.Duration) {
	EnricherDuration.WithLabelValues(name).Observe(float64(duration.Microseconds()) / 1000)
}

func ObserveBodySize(compression, phase string, size int) {
	BodySizeBytes.WithLabelValues(compression, phase).Observe(float64(size))
}

func IncRecoverabilityDecision(stage, action string) {
	RecoverabilityDecisionsTotal.WithLabelValues(stage, action).Inc()
}

func IncFailedImport(stage, destination, status string) {
	FailedImportsTotal.WithLabelValues(stage, destination, status).Inc()
}

func SetHeartbeatEndpoints(alive, dead int) {
	HeartbeatEndpoints.WithLabelValues("alive").Set(float64(alive))
	HeartbeatEndpoints.WithLabelValues("dead").Set(float64(dead))
}

func IncHeartbeatEvent(event string) {
	HeartbeatEventsTotal.WithLabelValues(event).Inc()
}

func IncCustomCheckEvent(status string) {
	CustomCheckEventsTotal.WithLabelValues(status).Inc()
}

func IncEventLogItem(category, status string) {
	EventLogItemsTotal.WithLabelValues(category, status).Inc()
}

func IncKafkaMessagesRead(service, topic string) {
	KafkaMessagesReadTotal.WithLabelValues(service, topic).Inc()
}

func IncKafkaMessagesWritten(service, topic string) {
	KafkaMessagesWrittenTotal.WithLabelValues(service, topic).Inc()
}

func ObserveKafkaMessageSize(service, topic, direction string, sizeBytes int) {
	KafkaMessageSizeBytes.WithLabelValues(service, topic, direction).Observe(float64(sizeBytes))
}

func SetKafkaCommittedOffset(service, topic string, partition int, offset int64) {
	KafkaCommittedOffset.WithLabelValues(service, topic, fmt.Sprintf("%d", partition)).Set(float64(offset))
}

func ObserveKafkaWriteDuration(service, topic string, duration time.Duration) {
	KafkaWriteDuration.WithLabelValues(service, topic).Observe(float64(duration.Milliseconds()))
}

func IncDatabaseQuery(service, database, operation, status string) {
	DatabaseQueriesTotal.WithLabelValues(service, database, operation, status).Inc()
}

func ObserveDatabaseQueryDuration(service, database, operation string, duration time.Duration) {
	DatabaseQueryDuration.WithLabelValues(service, database, operation).Observe(float64(duration.Milliseconds()))
}
