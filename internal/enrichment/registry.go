package enrichment

import (
	"fmt"

	"auditwatch/internal/config"
)

var DefaultOrder = []string{"message_type", "conversation", "endpoints", "processing_statistics", "rules"}

// Build assembles the pipeline named by cfg.Enrichers, in that order.
func Build(cfg config.EnrichmentConfig) (*Pipeline, error) {
	names := cfg.Enrichers
	if len(names) == 0 {
		names = DefaultOrder
	}

	seen := make(map[string]bool, len(names))
	enrichers := make([]Enricher, 0, len(names))
	for _, name := range names {
		if seen[name] {
			return nil, fmt.Errorf("enricher %q listed more than once", name)
		}
		seen[name] = true

		e, err := newEnricher(name, cfg)
		if err != nil {
			return nil, err
		}
		enrichers = append(enrichers, e)
	}

	return NewPipeline(enrichers...), nil
}

func newEnricher(name string, cfg config.EnrichmentConfig) (Enricher, error) {
	switch name {
	case "message_type":
		return messageTypeEnricher{}, nil
	case "conversation":
		return conversationEnricher{}, nil
	case "endpoints":
		return endpointsEnricher{}, nil
	case "processing_statistics":
		return processingStatisticsEnricher{}, nil
	case "rules":
		return newRulesEnricher(cfg.Rules)
	default:
		return nil, fmt.Errorf("unknown enricher %q", name)
	}
}
