package auditing

import (
	"context"

	"auditwatch/internal/config"
	"auditwatch/pkg/circuitbreaker"
)

// CircuitBreakerRepository fails fast while the store is unavailable.
type CircuitBreakerRepository struct {
	repo Repository
	cb   *circuitbreaker.Wrapper
}

func NewCircuitBreakerRepository(repo Repository, cfg config.CircuitBreakerConfig) Repository {
	if !cfg.Enabled {
		return repo
	}
	return &CircuitBreakerRepository{
		repo: repo,
		cb:   circuitbreaker.NewWrapper(circuitbreaker.FromSettings("mongodb-audit", cfg)),
	}
}

func (r *CircuitBreakerRepository) Upsert(ctx context.Context, msg *ProcessedMessage) error {
	return circuitbreaker.Do(ctx, r.cb, func(ctx context.Context) error {
		return r.repo.Upsert(ctx, msg)
	})
}
