package broker

import (
	"fmt"

	"auditwatch/internal/config"
	"auditwatch/internal/logger"
)

func NewProducer(cfg config.BrokerConfig, serviceName string, log logger.Logger) (Producer, error) {
	switch cfg.Type {
	case "kafka":
		return NewKafkaProducer(cfg.Kafka, serviceName, log), nil
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}

// NewSource opens a consumer for topic. Each stage joins its own consumer group.
func NewSource(cfg config.BrokerConfig, topic, stage, serviceName string, log logger.Logger) (Source, error) {
	switch cfg.Type {
	case "kafka":
		return NewKafkaSource(cfg.Kafka, topic, stage, serviceName, log), nil
	default:
		return nil, fmt.Errorf("unknown broker type: %s", cfg.Type)
	}
}
