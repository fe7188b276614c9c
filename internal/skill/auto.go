package skill

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/numbertheorist/internal/config"
	"github.com/dshills/numbertheorist/internal/event"
	"github.com/dshills/numbertheorist/internal/event/events"
)

// Auto answers a discovered prime with a cycle of further discoveries.
//
// While idle, any prime starts a cycle of AutoRepeat(level) primes spaced
// AutoInterval(level) apart. Primes produced by the cycle itself do not
// start another one.
type Auto struct {
	*base

	running   bool
	remaining int
	stopCycle context.CancelFunc
}

type autoState struct {
	Level     int  `json:"level"`
	Running   bool `json:"running"`
	Remaining int  `json:"remaining"`
}

func newAuto(deps Deps) (Skill, error) {
	a := &Auto{base: newBase(config.SkillAuto, deps)}

	if _, err := event.SubscribePayload(a.group, events.TopicPrimeDiscovered, a.onPrime); err != nil {
		a.Dispose()
		return nil, err
	}
	if err := a.subscribeUpgrades(a.onUpgrade); err != nil {
		a.Dispose()
		return nil, err
	}
	return a, nil
}

// Init implements Skill.
func (a *Auto) Init(ctx context.Context) error {
	return errors.Join(
		a.publishLevel(ctx),
		a.publishUpgradable(ctx, a.deps.Ledger.SkillPoints() > 0),
	)
}

// Running reports whether a cycle is in progress.
func (a *Auto) Running() bool { return a.running }

// Remaining returns the primes left in the current cycle.
func (a *Auto) Remaining() int { return a.remaining }

// Interval returns the spacing of cycle primes at the current level.
func (a *Auto) Interval() time.Duration {
	return a.deps.Rules.AutoInterval(a.level)
}

// Repeat returns the primes per cycle at the current level.
func (a *Auto) Repeat() int {
	return a.deps.Rules.AutoRepeat(a.level)
}

func (a *Auto) onPrime(ctx context.Context, _ events.PrimeDiscovered) error {
	if a.disposed() || a.running {
		return nil
	}
	n := a.Repeat()
	if n <= 0 {
		return nil
	}
	return a.start(ctx, n)
}

func (a *Auto) onUpgrade(ctx context.Context) error {
	a.logger.Debug("cycle parameters",
		zap.Duration("interval", a.Interval()),
		zap.Int("repeat", a.Repeat()),
	)
	return nil
}

// start schedules a cycle producing n primes.
func (a *Auto) start(ctx context.Context, n int) error {
	interval := a.Interval()
	cycleCtx, cancel := context.WithCancel(a.ctx)

	a.running = true
	a.remaining = n
	a.stopCycle = cancel
	a.deps.Scheduler.Every(cycleCtx, interval, a.tick)

	total := time.Duration(n) * interval
	return a.pub.PublishEvent(ctx, events.CooldownChanged{
		Skill:     a.name,
		Remaining: total,
		Total:     total,
	})
}

func (a *Auto) tick() {
	if a.disposed() || !a.running {
		return
	}

	a.remaining--
	last := a.remaining <= 0
	if last {
		a.stop()
	}

	// running stays set until the last prime is announced so that the
	// cycle's own prime does not start the next cycle.
	err := a.discover(a.ctx)
	if last {
		a.running = false
	}
	if err != nil {
		a.logger.Warn("auto prime", zap.Error(err))
	}
}

func (a *Auto) stop() {
	if a.stopCycle != nil {
		a.stopCycle()
		a.stopCycle = nil
	}
}

// State implements Skill.
func (a *Auto) State() (json.RawMessage, error) {
	return json.Marshal(autoState{Level: a.level, Running: a.running, Remaining: a.remaining})
}

// Restore implements Skill. A running cycle resumes with its remaining count.
func (a *Auto) Restore(ctx context.Context, payload json.RawMessage) error {
	var s autoState
	if err := json.Unmarshal(payload, &s); err != nil {
		return payloadError(a.name, err)
	}
	switch {
	case s.Level < 0:
		return invalidPayload(a.name, "negative level %d", s.Level)
	case s.Remaining < 0:
		return invalidPayload(a.name, "negative remaining %d", s.Remaining)
	}

	a.stop()
	a.level = s.Level
	a.running = false
	a.remaining = 0

	errs := []error{a.publishLevel(ctx)}
	if s.Running && s.Remaining > 0 {
		errs = append(errs, a.start(ctx, s.Remaining))
	}
	return errors.Join(errs...)
}
