package bootstrap

import (
	"context"
	"fmt"

	"auditwatch/internal/broker"
	"auditwatch/internal/config"
	"auditwatch/internal/logger"
)

type Base struct {
	Config   *config.Config
	Logger   logger.Logger
	Producer broker.Producer
	Sources  []broker.Source
}

func NewBase(cfg *config.Config, log logger.Logger) *Base {
	return &Base{
		Config: cfg,
		Logger: log,
	}
}

func (b *Base) InitProducer(serviceName string) error {
	producer, err := broker.NewProducer(b.Config.Broker, serviceName, b.Logger)
	if err != nil {
		return fmt.Errorf("failed to create producer: %w", err)
	}

	b.Producer = producer
	return nil
}

// OpenSource creates a consumer for topic and closes it with the rest of the broker.
func (b *Base) OpenSource(topic, stage, serviceName string) (broker.Source, error) {
	source, err := broker.NewSource(b.Config.Broker, topic, stage, serviceName, b.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create source for %s: %w", topic, err)
	}

	b.Sources = append(b.Sources, source)
	return source, nil
}

func (b *Base) ShutdownBroker() []error {
	var errs []error

	for _, source := range b.Sources {
		if err := source.Close(); err != nil {
			errs = append(errs, fmt.Errorf("source close error: %w", err))
		}
	}
	b.Sources = nil

	if b.Producer != nil {
		if err := b.Producer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("producer close error: %w", err))
		}
		b.Producer = nil
	}

	return errs
}

func (b *Base) Shutdown(ctx context.Context, additionalShutdown func(ctx context.Context) []error) error {
	b.Logger.Info("Shutting down application...")

	var errs []error

	errs = append(errs, b.ShutdownBroker()...)

	if additionalShutdown != nil {
		errs = append(errs, additionalShutdown(ctx)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("shutdown errors: %v", errs)
	}

	b.Logger.Info("Application exited successfully")
	return nil
}
