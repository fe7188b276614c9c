// Package ledger tracks experience, level and skill points.
//
// The ledger listens for discovered primes, grants experience for each,
// and applies level-ups until experience is below the current threshold.
// Every level gained grants one skill point. Thresholds come from an
// injected cost function.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/dshills/numbertheorist/internal/event"
	"github.com/dshills/numbertheorist/internal/event/events"
)

// Errors returned by the ledger.
var (
	// ErrInsufficientSkillPoints is returned when spending more points than
	// are available. Callers treat it as a declined request.
	ErrInsufficientSkillPoints = errors.New("ledger: insufficient skill points")

	// ErrInvalidCost is returned when the cost function yields a threshold
	// that is not a positive finite number.
	ErrInvalidCost = errors.New("ledger: invalid level-up cost")

	// ErrInvalidState is returned when restoring a state that violates the
	// ledger invariants.
	ErrInvalidState = errors.New("ledger: invalid state")
)

// CostFunc returns the experience needed to leave the given level.
type CostFunc func(level int) float64

// State is the persisted form of the ledger.
type State struct {
	Experience            float64 `json:"experience"`
	Level                 int     `json:"level"`
	SkillPoints           int     `json:"skillPoints"`
	ExperienceToNextLevel float64 `json:"experienceToNextLevel"`
}

// Validate checks the ledger invariants.
func (s State) Validate() error {
	switch {
	case math.IsNaN(s.Experience) || s.Experience < 0:
		return fmt.Errorf("%w: experience %v", ErrInvalidState, s.Experience)
	case s.Level < 0:
		return fmt.Errorf("%w: level %d", ErrInvalidState, s.Level)
	case s.SkillPoints < 0:
		return fmt.Errorf("%w: skill points %d", ErrInvalidState, s.SkillPoints)
	case !validThreshold(s.ExperienceToNextLevel):
		return fmt.Errorf("%w: threshold %v", ErrInvalidState, s.ExperienceToNextLevel)
	case s.Experience >= s.ExperienceToNextLevel:
		return fmt.Errorf("%w: experience %v not below threshold %v", ErrInvalidState, s.Experience, s.ExperienceToNextLevel)
	}
	return nil
}

// Ledger is the progression ledger. It must be used from the scheduler goroutine.
type Ledger struct {
	pub    *event.Publisher
	cost   CostFunc
	logger *zap.Logger
	sub    event.Subscription

	state State
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the ledger logger.
func WithLogger(logger *zap.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// New creates a ledger at level 0 and subscribes it to discovered primes.
func New(bus event.Bus, cost CostFunc, opts ...Option) (*Ledger, error) {
	if cost == nil {
		return nil, fmt.Errorf("%w: nil cost function", ErrInvalidCost)
	}

	l := &Ledger{
		pub:    event.NewPublisher(bus, "ledger"),
		cost:   cost,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}

	first, err := l.threshold(0)
	if err != nil {
		return nil, err
	}
	l.state = State{ExperienceToNextLevel: first}

	sub, err := event.Subscribe(bus, events.TopicPrimeDiscovered, l.onPrime, event.WithPriority(event.PriorityHigh))
	if err != nil {
		return nil, fmt.Errorf("subscribe ledger: %w", err)
	}
	l.sub = sub

	return l, nil
}

// onPrime logs the discovery and grants one experience.
func (l *Ledger) onPrime(ctx context.Context, p events.PrimeDiscovered) error {
	logErr := l.pub.PublishEvent(ctx, events.LogEntry{Text: fmt.Sprintf("New prime %d", p.Value)})
	return errors.Join(logErr, l.GainExperience(ctx, 1))
}

// GainExperience adds amount and applies every level-up it causes.
// Non-positive amounts are ignored.
func (l *Ledger) GainExperience(ctx context.Context, amount float64) error {
	if !(amount > 0) || math.IsInf(amount, 0) {
		return nil
	}

	l.state.Experience += amount

	var errs []error
	for l.state.Experience >= l.state.ExperienceToNextLevel {
		next, err := l.threshold(l.state.Level + 1)
		if err != nil {
			errs = append(errs, err)
			break
		}

		l.state.Experience -= l.state.ExperienceToNextLevel
		l.state.Level++
		l.state.ExperienceToNextLevel = next
		l.logger.Debug("level up", zap.Int("level", l.state.Level))
		errs = append(errs, l.pub.PublishEvent(ctx, events.LevelChanged{Level: l.state.Level}))

		l.state.SkillPoints++
		errs = append(errs, l.pub.PublishEvent(ctx, events.SkillPointsChanged{Points: l.state.SkillPoints}))
	}

	errs = append(errs, l.publishBar(ctx))
	return errors.Join(errs...)
}

// ConsumeSkillPoints spends n points. It returns ErrInsufficientSkillPoints
// and publishes nothing when fewer than n are available.
func (l *Ledger) ConsumeSkillPoints(ctx context.Context, n int) error {
	if n <= 0 {
		return nil
	}
	if n > l.state.SkillPoints {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientSkillPoints, l.state.SkillPoints, n)
	}

	l.state.SkillPoints -= n
	return l.pub.PublishEvent(ctx, events.SkillPointsChanged{Points: l.state.SkillPoints})
}

// Experience returns the experience accumulated toward the next level.
func (l *Ledger) Experience() float64 { return l.state.Experience }

// Level returns the current level.
func (l *Ledger) Level() int { return l.state.Level }

// SkillPoints returns the unspent skill points.
func (l *Ledger) SkillPoints() int { return l.state.SkillPoints }

// ExperienceToNextLevel returns the current level-up threshold.
func (l *Ledger) ExperienceToNextLevel() float64 { return l.state.ExperienceToNextLevel }

// State returns the persisted form of the ledger.
func (l *Ledger) State() State {
	return l.state
}

// Restore replaces the ledger state and republishes it.
// The threshold is recomputed from the cost function for the restored level.
func (l *Ledger) Restore(ctx context.Context, s State) error {
	if err := s.Validate(); err != nil {
		return err
	}

	threshold, err := l.threshold(s.Level)
	if err != nil {
		return err
	}
	if s.Experience >= threshold {
		return fmt.Errorf("%w: experience %v not below threshold %v for level %d",
			ErrInvalidState, s.Experience, threshold, s.Level)
	}
	if threshold != s.ExperienceToNextLevel {
		l.logger.Warn("restored threshold differs from configuration",
			zap.Int("level", s.Level),
			zap.Float64("saved", s.ExperienceToNextLevel),
			zap.Float64("configured", threshold),
		)
	}

	s.ExperienceToNextLevel = threshold
	l.state = s
	return l.Refresh(ctx)
}

// Reset returns the ledger to level 0 and republishes it.
func (l *Ledger) Reset(ctx context.Context) error {
	first, err := l.threshold(0)
	if err != nil {
		return err
	}
	l.state = State{ExperienceToNextLevel: first}
	return l.Refresh(ctx)
}

// Refresh republishes the level, skill points and experience bar.
func (l *Ledger) Refresh(ctx context.Context) error {
	return errors.Join(
		l.pub.PublishEvent(ctx, events.LevelChanged{Level: l.state.Level}),
		l.pub.PublishEvent(ctx, events.SkillPointsChanged{Points: l.state.SkillPoints}),
		l.publishBar(ctx),
	)
}

// Close cancels the ledger's subscription.
func (l *Ledger) Close() {
	if l.sub != nil {
		l.sub.Cancel()
	}
}

func (l *Ledger) publishBar(ctx context.Context) error {
	return l.pub.PublishEvent(ctx, events.ExperienceBar{
		Current: l.state.Experience,
		Max:     l.state.ExperienceToNextLevel,
	})
}

// threshold evaluates the cost function and rejects unusable results.
func (l *Ledger) threshold(level int) (float64, error) {
	c := l.cost(level)
	if !validThreshold(c) {
		return 0, fmt.Errorf("%w: cost(%d) = %v", ErrInvalidCost, level, c)
	}
	return c, nil
}

func validThreshold(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}
