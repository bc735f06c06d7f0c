// Package recoverability decides what happens to a message whose processing failed.
package recoverability

import (
	"context"
	"time"

	"auditwatch/internal/config"
	"auditwatch/internal/logger"
	"auditwatch/pkg/metrics"
	"auditwatch/pkg/models"
	"auditwatch/pkg/retry"
)

type Action int

const (
	RetryImmediate Action = iota
	RetryDelayed
	MoveToError
)

func (a Action) String() string {
	switch a {
	case RetryImmediate:
		return "retry_immediate"
	case RetryDelayed:
		return "retry_delayed"
	case MoveToError:
		return "move_to_error"
	default:
		return "unknown"
	}
}

type Decision struct {
	Action Action
	Delay  time.Duration
}

// ErrorContext describes one failed processing attempt.
type ErrorContext struct {
	Message                     models.TransportMessage
	Err                         error
	ImmediateProcessingFailures int
	DelayedDeliveriesPerformed  int
}

type Config struct {
	ImmediateRetries int
	DelayedRetries   int
	DelayedInterval  time.Duration
}

func ConfigFrom(cfg config.IngestionConfig) Config {
	return Config{
		ImmediateRetries: cfg.ImmediateRetries,
		DelayedRetries:   cfg.DelayedRetries,
		DelayedInterval:  cfg.DelayedInterval,
	}
}

const maxDelayFactor = 16

// DefaultPolicy retries immediately, then with growing delays, then gives up.
// Every failure goes through the same schedule, whatever its cause; a message
// is only captured once both retry budgets are spent.
func DefaultPolicy(cfg Config, ec ErrorContext) Decision {
	if ec.ImmediateProcessingFailures <= cfg.ImmediateRetries {
		return Decision{Action: RetryImmediate}
	}

	if ec.DelayedDeliveriesPerformed < cfg.DelayedRetries {
		return Decision{
			Action: RetryDelayed,
			Delay: retry.DelayFor(
				ec.DelayedDeliveriesPerformed,
				cfg.DelayedInterval,
				2.0,
				cfg.DelayedInterval*maxDelayFactor,
			),
		}
	}

	return Decision{Action: MoveToError}
}

// CapturingPolicy runs the failure capture before reporting MoveToError, so a
// message is never released without a durable copy.
type CapturingPolicy struct {
	cfg     Config
	stage   string
	handler *ImportFailuresHandler
	logger  logger.Logger
}

func NewCapturingPolicy(cfg Config, stage string, handler *ImportFailuresHandler, log logger.Logger) *CapturingPolicy {
	return &CapturingPolicy{cfg: cfg, stage: stage, handler: handler, logger: log}
}

func (p *CapturingPolicy) Decide(ctx context.Context, ec ErrorContext) (Decision, error) {
	decision := DefaultPolicy(p.cfg, ec)
	metrics.IncRecoverabilityDecision(p.stage, decision.Action.String())

	if decision.Action != MoveToError {
		p.logger.DebugwCtx(ctx, "Retrying failed message",
			"action", decision.Action.String(),
			"delay", decision.Delay,
			"immediate_failures", ec.ImmediateProcessingFailures,
			"delayed_deliveries", ec.DelayedDeliveriesPerformed,
			"error", ec.Err,
		)
		return decision, nil
	}

	p.logger.WarnwCtx(ctx, "Retries exhausted, capturing failed import",
		"immediate_failures", ec.ImmediateProcessingFailures,
		"delayed_deliveries", ec.DelayedDeliveriesPerformed,
		"error", ec.Err,
	)

	if err := p.handler.Handle(ctx, ec); err != nil {
		return decision, err
	}
	return decision, nil
}
