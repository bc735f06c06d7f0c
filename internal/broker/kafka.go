package broker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"auditwatch/internal/config"
	"auditwatch/internal/constants"
	"auditwatch/internal/logger"
	"auditwatch/pkg/metrics"
	"auditwatch/pkg/models"
	"auditwatch/pkg/tracing"
)

type KafkaProducer struct {
	writer      *kafka.Writer
	serviceName string
	logger      logger.Logger
}

func NewKafkaProducer(cfg config.KafkaConfig, serviceName string, log logger.Logger) *KafkaProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		BatchTimeout: constants.KafkaBatchTimeout,
		WriteTimeout: constants.KafkaWriteTimeout,
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}
	return &KafkaProducer{writer: w, serviceName: serviceName, logger: log}
}

func (p *KafkaProducer) Publish(ctx context.Context, topic string, key string, value []byte, headers map[string]string) error {
	kafkaHeaders := make([]kafka.Header, 0, len(headers)+2)
	for k, v := range headers {
		kafkaHeaders = append(kafkaHeaders, kafka.Header{Key: k, Value: []byte(v)})
	}
	kafkaHeaders = tracing.InjectTraceContext(ctx, kafkaHeaders)

	start := time.Now()
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   value,
		Headers: kafkaHeaders,
		Time:    time.Now(),
	})
	metrics.ObserveKafkaWriteDuration(p.serviceName, topic, time.Since(start))
	if err != nil {
		return fmt.Errorf("failed to write kafka message: %w", err)
	}

	metrics.IncKafkaMessagesWritten(p.serviceName, topic)
	metrics.ObserveKafkaMessageSize(p.serviceName, topic, "out", len(value))
	return nil
}

func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

// KafkaSource reads one topic through a consumer group and commits explicitly.
type KafkaSource struct {
	reader      *kafka.Reader
	topic       string
	serviceName string
	logger      logger.Logger
}

func NewKafkaSource(cfg config.KafkaConfig, topic, stage, serviceName string, log logger.Logger) *KafkaSource {
	groupID := cfg.GroupID + "-" + strings.ToLower(stage)

	log.Infow("Creating Kafka reader",
		"topic", topic,
		"brokers", cfg.Brokers,
		"group_id", groupID,
		"service_name", serviceName,
	)

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     groupID,
		Topic:       topic,
		MinBytes:    1,
		MaxBytes:    10e6,
		MaxWait:     500 * time.Millisecond,
		StartOffset: kafka.FirstOffset,
	})

	return &KafkaSource{reader: reader, topic: topic, serviceName: serviceName, logger: log}
}

func (s *KafkaSource) Fetch(ctx context.Context) (Delivery, error) {
	m, err := s.reader.FetchMessage(ctx)
	if err != nil {
		return Delivery{}, err
	}

	metrics.IncKafkaMessagesRead(s.serviceName, m.Topic)
	metrics.ObserveKafkaMessageSize(s.serviceName, m.Topic, "in", len(m.Value))

	return Delivery{
		Message:   toTransportMessage(m),
		Topic:     m.Topic,
		Partition: m.Partition,
		Offset:    m.Offset,
	}, nil
}

func (s *KafkaSource) Commit(ctx context.Context, d Delivery) error {
	err := s.reader.CommitMessages(ctx, kafka.Message{
		Topic:     d.Topic,
		Partition: d.Partition,
		Offset:    d.Offset,
	})
	if err != nil {
		return fmt.Errorf("failed to commit offset %d on %s/%d: %w", d.Offset, d.Topic, d.Partition, err)
	}
	metrics.SetKafkaCommittedOffset(s.serviceName, d.Topic, d.Partition, d.Offset)
	return nil
}

func (s *KafkaSource) Close() error {
	return s.reader.Close()
}

// TransportMessageID is stable across redeliveries of the same record.
func TransportMessageID(topic string, partition int, offset int64) string {
	return fmt.Sprintf("%s-%d-%d", topic, partition, offset)
}

func toTransportMessage(m kafka.Message) models.TransportMessage {
	headers := make(map[string]string, len(m.Headers))
	for _, h := range m.Headers {
		headers[h.Key] = string(h.Value)
	}
	return models.TransportMessage{
		MessageID: TransportMessageID(m.Topic, m.Partition, m.Offset),
		Headers:   headers,
		Body:      m.Value,
	}
}
