// Package heartbeat tracks endpoint instance liveness from periodic heartbeats.
package heartbeat

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"auditwatch/internal/config"
	"auditwatch/internal/events"
	"auditwatch/internal/logger"
	"auditwatch/pkg/errors"
	"auditwatch/pkg/metrics"
	"auditwatch/pkg/models"
)

type key struct {
	endpoint string
	machine  string
}

type entry struct {
	mu         sync.Mutex
	endpoint   string
	machine    string
	lastSentAt time.Time
	active     bool
}

func (e *entry) status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Status{Endpoint: e.endpoint, Machine: e.machine, LastSentAt: e.lastSentAt, Active: e.active}
}

// touch keeps the newest send time; out-of-order heartbeats are ignored.
func (e *entry) touch(sentAt time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sentAt.After(e.lastSentAt) {
		e.lastSentAt = sentAt
	}
}

type Status struct {
	Endpoint   string    `json:"endpoint"`
	Machine    string    `json:"machine"`
	LastSentAt time.Time `json:"last_sent_at"`
	Active     bool      `json:"active"`
}

type Stats struct {
	Active  int `json:"active"`
	Failing int `json:"failing"`
}

type Option func(*Monitor)

// WithClock replaces the wall clock used by sweeps.
func WithClock(now func() time.Time) Option {
	return func(m *Monitor) { m.now = now }
}

func WithEvictionPolicy(p EvictionPolicy) Option {
	return func(m *Monitor) { m.eviction = p }
}

// Monitor classifies every (endpoint, machine) pair as active or inactive and
// publishes one event per classification change.
type Monitor struct {
	mu      sync.RWMutex
	entries map[key]*entry

	notifier    events.Notifier
	gracePeriod time.Duration
	interval    time.Duration
	eviction    EvictionPolicy
	now         func() time.Time
	logger      logger.Logger

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func NewMonitor(cfg config.HeartbeatConfig, notifier events.Notifier, log logger.Logger, opts ...Option) *Monitor {
	m := &Monitor{
		entries:     make(map[key]*entry),
		notifier:    notifier,
		gracePeriod: cfg.GracePeriod,
		interval:    cfg.Interval,
		now:         time.Now,
		logger:      log,
	}
	if cfg.EvictionAfter > 0 {
		m.eviction = EvictInactiveAfter(cfg.EvictionAfter)
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// RegisterHeartbeat records a heartbeat. The first heartbeat of a pair marks
// it active and publishes HeartbeatReceived; later ones only move lastSentAt
// forward and leave reactivation to the sweep.
func (m *Monitor) RegisterHeartbeat(ctx context.Context, endpoint, machine string, sentAt time.Time) {
	k := key{endpoint: endpoint, machine: machine}
	sentAt = sentAt.UTC()

	// The entry is updated while the registry lock is held so Evict cannot
	// drop it in between and lose the heartbeat.
	m.mu.RLock()
	if e, ok := m.entries[k]; ok {
		e.touch(sentAt)
		m.mu.RUnlock()
		return
	}
	m.mu.RUnlock()

	m.mu.Lock()
	if e, ok := m.entries[k]; ok {
		e.touch(sentAt)
		m.mu.Unlock()
		return
	}
	m.entries[k] = &entry{endpoint: endpoint, machine: machine, lastSentAt: sentAt, active: true}
	m.mu.Unlock()

	m.logger.InfowCtx(ctx, "New endpoint instance detected", "endpoint", endpoint, "machine", machine)
	m.publish(ctx, models.HeartbeatReceived{Endpoint: endpoint, Machine: machine, LastSentAt: sentAt})
}

// Refresh runs one sweep over a snapshot of the registry.
func (m *Monitor) Refresh(ctx context.Context) {
	start := time.Now()
	now := m.now().UTC()

	var stats Stats
	for _, e := range m.snapshot() {
		if ctx.Err() != nil {
			return
		}
		if m.evaluate(ctx, e, now) {
			stats.Active++
		} else {
			stats.Failing++
		}
	}

	metrics.SetHeartbeatEndpoints(stats.Active, stats.Failing)
	metrics.HeartbeatSweepDuration.Observe(float64(time.Since(start).Microseconds()) / 1000)
}

func (m *Monitor) evaluate(ctx context.Context, e *entry, now time.Time) (active bool) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.ErrorwCtx(ctx, "Panic recovered while evaluating heartbeat",
				"endpoint", e.endpoint,
				"machine", e.machine,
				"error", errors.RecoverPanic(r),
			)
		}
	}()

	e.mu.Lock()
	active = now.Sub(e.lastSentAt) < m.gracePeriod
	if active == e.active {
		e.mu.Unlock()
		return active
	}
	e.active = active
	lastSentAt := e.lastSentAt
	e.mu.Unlock()

	if active {
		m.logger.InfowCtx(ctx, "Endpoint instance is alive again", "endpoint", e.endpoint, "machine", e.machine)
		m.publish(ctx, models.HeartbeatReceived{Endpoint: e.endpoint, Machine: e.machine, LastSentAt: lastSentAt})
	} else {
		m.logger.WarnwCtx(ctx, "Endpoint instance missed its heartbeat grace period",
			"endpoint", e.endpoint,
			"machine", e.machine,
			"last_sent_at", lastSentAt,
		)
		m.publish(ctx, models.HeartbeatGracePeriodElapsed{
			Endpoint:   e.endpoint,
			Machine:    e.machine,
			LastSentAt: lastSentAt,
			DetectedAt: now,
		})
	}
	return active
}

func (m *Monitor) publish(ctx context.Context, event models.Event) {
	metrics.IncHeartbeatEvent(event.EventType())
	if err := m.notifier.Publish(ctx, event); err != nil {
		m.logger.ErrorwCtx(ctx, "Failed to publish heartbeat event", "event_type", event.EventType(), "error", err)
	}
}

func (m *Monitor) snapshot() []*entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]*entry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e)
	}
	return entries
}

// Statuses lists every tracked instance ordered by endpoint then machine.
func (m *Monitor) Statuses() []Status {
	entries := m.snapshot()
	statuses := make([]Status, 0, len(entries))
	for _, e := range entries {
		statuses = append(statuses, e.status())
	}
	sort.Slice(statuses, func(i, j int) bool {
		if statuses[i].Endpoint != statuses[j].Endpoint {
			return statuses[i].Endpoint < statuses[j].Endpoint
		}
		return statuses[i].Machine < statuses[j].Machine
	})
	return statuses
}

// Stats counts instances by the classification of the last sweep.
func (m *Monitor) Stats() Stats {
	var stats Stats
	for _, s := range m.Statuses() {
		if s.Active {
			stats.Active++
		} else {
			stats.Failing++
		}
	}
	return stats
}

// Evict removes the entries the eviction policy selects and returns how many went.
func (m *Monitor) Evict(ctx context.Context) int {
	if m.eviction == nil {
		return 0
	}
	now := m.now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for k, e := range m.entries {
		if m.eviction.ShouldEvict(e.status(), now) {
			delete(m.entries, k)
			evicted++
		}
	}
	if evicted > 0 {
		m.logger.InfowCtx(ctx, "Evicted inactive endpoint instances", "count", evicted)
	}
	return evicted
}

// Start runs the sweep loop in the background: one sweep at once, then one per
// interval. Sweeps never overlap.
func (m *Monitor) Start(ctx context.Context) error {
	m.runMu.Lock()
	defer m.runMu.Unlock()

	if m.cancel != nil {
		return fmt.Errorf("heartbeat monitor already started")
	}

	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.loop(ctx, m.done)
	return nil
}

// Stop ends the sweep loop and waits for it. Registrations keep working.
func (m *Monitor) Stop() {
	m.runMu.Lock()
	cancel, done := m.cancel, m.done
	m.cancel, m.done = nil, nil
	m.runMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

// Run blocks until ctx is done, sweeping in the meantime.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	m.Stop()
	return ctx.Err()
}

func (m *Monitor) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	m.logger.InfowCtx(ctx, "Heartbeat monitor started",
		"grace_period", m.gracePeriod,
		"interval", m.interval,
		"eviction", m.eviction != nil,
	)

	m.Refresh(ctx)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	var evictC <-chan time.Time
	if m.eviction != nil {
		evictTicker := time.NewTicker(m.gracePeriod)
		defer evictTicker.Stop()
		evictC = evictTicker.C
	}

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("Heartbeat monitor stopped")
			return
		case <-ticker.C:
			m.Refresh(ctx)
		case <-evictC:
			m.Evict(ctx)
		}
	}
}
