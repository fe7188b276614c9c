package app

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dshills/numbertheorist/internal/event"
	"github.com/dshills/numbertheorist/internal/event/events"
)

// Metrics counts what happened during a session.
type Metrics struct {
	commands  atomic.Uint64
	rejected  atomic.Uint64
	primes    atomic.Uint64
	saves     atomic.Uint64
	autosaves atomic.Uint64
	errors    atomic.Uint64

	startTime time.Time
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{startTime: time.Now()}
}

// Attach counts the primes discovered through g's bus.
func (m *Metrics) Attach(g *event.Group) error {
	_, err := event.SubscribePayload(g, events.TopicPrimeDiscovered, func(context.Context, events.PrimeDiscovered) error {
		m.primes.Add(1)
		return nil
	})
	return err
}

// RecordCommand records an executed command.
func (m *Metrics) RecordCommand() { m.commands.Add(1) }

// RecordRejected records an input line that was not a command.
func (m *Metrics) RecordRejected() { m.rejected.Add(1) }

// RecordSave records a save. Autosaves are counted separately.
func (m *Metrics) RecordSave(auto bool) {
	if auto {
		m.autosaves.Add(1)
		return
	}
	m.saves.Add(1)
}

// RecordError records a failed command or save.
func (m *Metrics) RecordError() { m.errors.Add(1) }

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	Commands  uint64
	Rejected  uint64
	Primes    uint64
	Saves     uint64
	Autosaves uint64
	Errors    uint64
	Uptime    time.Duration
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Commands:  m.commands.Load(),
		Rejected:  m.rejected.Load(),
		Primes:    m.primes.Load(),
		Saves:     m.saves.Load(),
		Autosaves: m.autosaves.Load(),
		Errors:    m.errors.Load(),
		Uptime:    time.Since(m.startTime),
	}
}
