// Package game wires one bus, one prime generator, one ledger and one
// skill roster into a playable game.
//
// A Game is not safe for concurrent use. Every method, and every task the
// game schedules, must run on the scheduler's goroutine.
package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dshills/numbertheorist/internal/config"
	"github.com/dshills/numbertheorist/internal/event"
	"github.com/dshills/numbertheorist/internal/event/events"
	"github.com/dshills/numbertheorist/internal/ledger"
	"github.com/dshills/numbertheorist/internal/prime"
	"github.com/dshills/numbertheorist/internal/roster"
	"github.com/dshills/numbertheorist/internal/schedule"
	"github.com/dshills/numbertheorist/internal/skill"
	"github.com/dshills/numbertheorist/internal/snapshot"
)

// ErrClosed is returned by operations on a closed game.
var ErrClosed = errors.New("game: closed")

// Game is one game session.
type Game struct {
	id     string
	sched  schedule.Scheduler
	rules  config.Rules
	logger *zap.Logger

	bus    event.Bus
	pub    *event.Publisher
	primes *prime.Generator
	ledger *ledger.Ledger
	roster *roster.Manager

	ctx    context.Context
	cancel context.CancelFunc
}

type options struct {
	logger    *zap.Logger
	sessionID string
	bus       event.Bus
}

// Option configures a Game.
type Option func(*options)

// WithLogger sets the logger shared by every component of the game.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithSessionID sets the session id instead of generating one.
func WithSessionID(id string) Option {
	return func(o *options) {
		o.sessionID = id
	}
}

// WithBus uses bus instead of a private one.
func WithBus(bus event.Bus) Option {
	return func(o *options) {
		o.bus = bus
	}
}

// New builds a game and resets it.
func New(sched schedule.Scheduler, rules config.Rules, opts ...Option) (*Game, error) {
	if sched == nil {
		return nil, fmt.Errorf("%w: scheduler", skill.ErrMissingDependency)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.sessionID == "" {
		o.sessionID = uuid.NewString()
	}
	logger := o.logger.With(zap.String("session", o.sessionID))

	bus := o.bus
	if bus == nil {
		bus = event.NewBus(event.WithLogger(logger), event.WithClock(sched.Now))
	}

	led, err := ledger.New(bus, rules.LevelUpCost, ledger.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	g := &Game{
		id:     o.sessionID,
		sched:  sched,
		rules:  rules,
		logger: logger,
		bus:    bus,
		pub:    event.NewPublisher(bus, "game"),
		primes: prime.New(sched, prime.WithLogger(logger)),
		ledger: led,
		ctx:    ctx,
		cancel: cancel,
	}

	g.roster, err = roster.New(skill.Deps{
		Bus:       bus,
		Scheduler: sched,
		Primes:    g.primes,
		Ledger:    led,
		Rules:     rules,
		Logger:    logger,
		Context:   ctx,
	}, rules.SkillCount, rules.Unlocked, roster.WithLogger(logger))
	if err != nil {
		g.Close()
		return nil, err
	}

	if err := g.Reset(context.Background()); err != nil {
		g.Close()
		return nil, err
	}
	return g, nil
}

// SessionID returns the session id recorded in snapshots and logs.
func (g *Game) SessionID() string { return g.id }

// Bus returns the game bus. Input and presentation attach here.
func (g *Game) Bus() event.Bus { return g.bus }

// Rules returns the game rules.
func (g *Game) Rules() config.Rules { return g.rules }

// Primes returns the prime generator.
func (g *Game) Primes() *prime.Generator { return g.primes }

// Ledger returns the progression ledger.
func (g *Game) Ledger() *ledger.Ledger { return g.ledger }

// Roster returns the skill roster.
func (g *Game) Roster() *roster.Manager { return g.roster }

// Reset starts the game over.
func (g *Game) Reset(ctx context.Context) error {
	if g.closed() {
		return ErrClosed
	}

	g.primes.Reset()
	err := errors.Join(
		g.ledger.Reset(ctx),
		g.roster.Reset(ctx),
	)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	g.logger.Info("game reset")
	return g.PublishStatus(ctx)
}

// Save captures the game.
func (g *Game) Save() (snapshot.Snapshot, error) {
	if g.closed() {
		return snapshot.Snapshot{}, ErrClosed
	}

	entries, err := g.roster.State()
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("save roster: %w", err)
	}
	return snapshot.Snapshot{
		Version:        snapshot.Version,
		Session:        g.id,
		SavedAt:        g.sched.Now().UTC(),
		PrimesConsumed: g.primes.Count(),
		Ledger:         g.ledger.State(),
		Roster:         entries,
	}, nil
}

// Load replaces the game with a snapshot. The snapshot is validated
// before anything changes; the generator, the ledger and the roster are
// then restored in that order. If a later step fails the game is reset.
func (g *Game) Load(ctx context.Context, s snapshot.Snapshot) error {
	if g.closed() {
		return ErrClosed
	}
	if err := s.Validate(g.rules.SkillCount); err != nil {
		return fmt.Errorf("load: %w", err)
	}

	err := g.restore(ctx, s)
	if err != nil {
		g.logger.Warn("load failed, resetting", zap.Error(err))
		return errors.Join(fmt.Errorf("load: %w", err), g.Reset(ctx))
	}

	g.logger.Info("game loaded",
		zap.String("saved_session", s.Session),
		zap.Int("primes", s.PrimesConsumed),
		zap.Int("level", s.Ledger.Level),
	)
	return g.PublishStatus(ctx)
}

func (g *Game) restore(ctx context.Context, s snapshot.Snapshot) error {
	if err := g.primes.Restore(s.PrimesConsumed); err != nil {
		return err
	}
	if err := g.ledger.Restore(ctx, s.Ledger); err != nil {
		return err
	}
	return g.roster.Restore(ctx, s.Roster)
}

// Trigger publishes the primary action.
func (g *Game) Trigger(ctx context.Context) error {
	if g.closed() {
		return ErrClosed
	}
	return g.bus.PublishEvent(ctx, events.PrimaryTriggered{})
}

// RequestUpgrade asks the named skill to spend a skill point on itself.
// A request the player cannot afford is declined silently.
func (g *Game) RequestUpgrade(ctx context.Context, name string) error {
	if g.closed() {
		return ErrClosed
	}
	if !skill.Known(name) {
		return &skill.UnknownSkillError{Name: name}
	}
	return g.bus.PublishEvent(ctx, events.UpgradeRequested{Skill: name})
}

// Status summarises the game.
func (g *Game) Status() events.Status {
	return events.Status{
		Level:       g.ledger.Level(),
		Experience:  g.ledger.Experience(),
		NextLevelAt: g.ledger.ExperienceToNextLevel(),
		SkillPoints: g.ledger.SkillPoints(),
		Current:     g.primes.Current(),
		Count:       g.primes.Count(),
	}
}

// PublishStatus publishes Status on the bus.
func (g *Game) PublishStatus(ctx context.Context) error {
	return g.pub.PublishEvent(ctx, g.Status())
}

// Close disposes every skill and cancels all scheduled work.
func (g *Game) Close() {
	g.cancel()
	if g.roster != nil {
		g.roster.Close()
	}
	g.ledger.Close()
	g.primes.Close()
}

func (g *Game) closed() bool {
	return g.ctx.Err() != nil
}
