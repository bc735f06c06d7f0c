// Package enrichment attaches derived metadata to audit records before they are stored.
package enrichment

import (
	"context"
	"fmt"
	"time"

	apperrors "auditwatch/pkg/errors"
	"auditwatch/pkg/metrics"
)

// Enricher derives metadata from message headers. Implementations must be
// idempotent and must not mutate headers.
type Enricher interface {
	Name() string
	EnrichAudits() bool
	Enrich(ctx context.Context, headers map[string]string, metadata map[string]interface{}) error
}

// Pipeline runs audit enrichers in order over a shared metadata map.
type Pipeline struct {
	enrichers []Enricher
}

func NewPipeline(enrichers ...Enricher) *Pipeline {
	audit := make([]Enricher, 0, len(enrichers))
	for _, e := range enrichers {
		if e.EnrichAudits() {
			audit = append(audit, e)
		}
	}
	return &Pipeline{enrichers: audit}
}

func (p *Pipeline) Names() []string {
	names := make([]string, len(p.enrichers))
	for i, e := range p.enrichers {
		names[i] = e.Name()
	}
	return names
}

// Enrich stops at the first failing enricher.
func (p *Pipeline) Enrich(ctx context.Context, headers map[string]string, metadata map[string]interface{}) error {
	for _, e := range p.enrichers {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := time.Now()
		err := e.Enrich(ctx, headers, metadata)
		metrics.ObserveEnricher(e.Name(), time.Since(start))

		if err != nil {
			return fmt.Errorf("enricher %s: %w", e.Name(),
				apperrors.ErrEnrichment.WithCause(err).WithDetail("enricher", e.Name()))
		}
	}
	return nil
}
