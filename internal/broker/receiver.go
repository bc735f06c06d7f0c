package broker

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"auditwatch/internal/config"
	"auditwatch/internal/logger"
	"auditwatch/internal/recoverability"
	"auditwatch/pkg/errors"
	"auditwatch/pkg/logging"
	"auditwatch/pkg/metrics"
	"auditwatch/pkg/retry"
)

const (
	fetchErrorBackoff = time.Second
	commitTimeout     = 5 * time.Second
)

type ReceiverConfig struct {
	Stage          string
	ServiceName    string
	MaxConcurrency int
	MessageTimeout time.Duration
	// CaptureRetry schedules repeated Decide calls while the failure capture fails.
	CaptureRetry retry.Policy
}

func ReceiverConfigFrom(stage, serviceName string, cfg config.IngestionConfig) ReceiverConfig {
	return ReceiverConfig{
		Stage:          stage,
		ServiceName:    serviceName,
		MaxConcurrency: cfg.MaxConcurrency,
		MessageTimeout: cfg.MessageTimeout,
		CaptureRetry:   retry.UntilSuccess(time.Second, time.Minute),
	}
}

// Receiver feeds a bounded pool of workers from a single unbuffered channel.
// A record is committed once it was handled or captured, never past a record
// that is still in flight.
type Receiver struct {
	cfg     ReceiverConfig
	source  Source
	handler HandlerFunc
	decider Decider
	logger  logger.Logger

	tracker  *offsetTracker
	commitMu sync.Mutex
	sleep    func(ctx context.Context, d time.Duration) error
}

func NewReceiver(cfg ReceiverConfig, source Source, handler HandlerFunc, decider Decider, log logger.Logger) *Receiver {
	if cfg.MaxConcurrency < 1 {
		cfg.MaxConcurrency = 1
	}
	return &Receiver{
		cfg:     cfg,
		source:  source,
		handler: handler,
		decider: decider,
		logger:  log,
		tracker: newOffsetTracker(),
		sleep:   sleepContext,
	}
}

// Run blocks until ctx is done. Messages in flight at shutdown stay uncommitted.
func (r *Receiver) Run(ctx context.Context) error {
	ctx = logging.WithStage(logging.WithServiceName(ctx, r.cfg.ServiceName), r.cfg.Stage)
	deliveries := make(chan Delivery)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < r.cfg.MaxConcurrency; i++ {
		g.Go(func() error {
			for d := range deliveries {
				r.process(gctx, d)
			}
			return nil
		})
	}

	r.logger.InfowCtx(ctx, "Receiver started", "workers", r.cfg.MaxConcurrency)
	r.fetchLoop(gctx, deliveries)
	close(deliveries)

	err := g.Wait()
	r.logger.InfowCtx(ctx, "Receiver stopped")
	if err != nil {
		return err
	}
	return ctx.Err()
}

func (r *Receiver) fetchLoop(ctx context.Context, deliveries chan<- Delivery) {
	for {
		d, err := r.source.Fetch(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.logger.ErrorwCtx(ctx, "Error fetching message", "error", err)
			if r.sleep(ctx, fetchErrorBackoff) != nil {
				return
			}
			continue
		}

		r.tracker.track(d.Partition, d.Offset)
		select {
		case deliveries <- d:
		case <-ctx.Done():
			return
		}
	}
}

func (r *Receiver) process(ctx context.Context, d Delivery) {
	ctx = logging.WithMessageID(ctx, d.Message.MessageID)
	inFlight := metrics.InFlightMessages.WithLabelValues(r.cfg.Stage)
	inFlight.Inc()
	defer inFlight.Dec()

	immediateFailures, delayedDeliveries := 0, 0
	for {
		err := r.attempt(ctx, d)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return
		}

		immediateFailures++
		ec := recoverability.ErrorContext{
			Message:                     d.Message,
			Err:                         err,
			ImmediateProcessingFailures: immediateFailures,
			DelayedDeliveriesPerformed:  delayedDeliveries,
		}

		decision, ok := r.decide(ctx, ec)
		if !ok {
			return
		}

		if decision.Action == recoverability.MoveToError {
			break
		}
		if decision.Action == recoverability.RetryDelayed {
			if r.sleep(ctx, decision.Delay) != nil {
				return
			}
			delayedDeliveries++
			immediateFailures = 0
		}
	}

	r.complete(ctx, d)
}

func (r *Receiver) attempt(ctx context.Context, d Delivery) error {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.MessageTimeout)
	defer cancel()

	err := errors.Guard(func() error { return r.handler(ctx, d.Message) })
	if errors.IsPanic(err) {
		r.logger.ErrorwCtx(ctx, "Panic recovered during message processing", "error", err)
	}
	return err
}

// decide keeps asking the policy until it produces a decision; a failing
// capture is retried with backoff and the message is held meanwhile.
func (r *Receiver) decide(ctx context.Context, ec recoverability.ErrorContext) (recoverability.Decision, bool) {
	var decision recoverability.Decision
	err := retry.RetryWithCallback(ctx, r.cfg.CaptureRetry, func() error {
		var err error
		decision, err = r.decider.Decide(ctx, ec)
		return err
	}, func(attempt int, err error, next time.Duration) {
		r.logger.ErrorwCtx(ctx, "Failed import capture failed, retrying",
			"attempt", attempt,
			"next_delay", next,
			"error", err,
		)
	})
	if err != nil {
		r.logger.WarnwCtx(ctx, "Giving up on message without acknowledging it", "error", err)
		return decision, false
	}
	return decision, true
}

func (r *Receiver) complete(ctx context.Context, d Delivery) {
	r.commitMu.Lock()
	defer r.commitMu.Unlock()

	mark, moved := r.tracker.complete(d.Partition, d.Offset)
	if !moved {
		return
	}

	commitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	upTo := d
	upTo.Offset = mark
	if err := r.source.Commit(commitCtx, upTo); err != nil {
		r.logger.ErrorwCtx(ctx, "Failed to commit message", "error", err, "offset", mark)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
