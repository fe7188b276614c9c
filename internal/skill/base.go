package skill

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/dshills/numbertheorist/internal/event"
	"github.com/dshills/numbertheorist/internal/event/events"
	"github.com/dshills/numbertheorist/internal/ledger"
)

// base holds what every skill shares: its subscriptions, its publisher
// and the context that scheduled work runs under.
type base struct {
	name   string
	deps   Deps
	logger *zap.Logger
	group  *event.Group
	pub    *event.Publisher

	ctx    context.Context
	cancel context.CancelFunc

	level int
}

func newBase(name string, deps Deps) *base {
	parent := deps.Context
	if parent == nil {
		parent = context.Background()
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(parent)
	return &base{
		name:   name,
		deps:   deps,
		logger: logger.With(zap.String("skill", name)),
		group:  event.NewGroup(deps.Bus),
		pub:    event.NewPublisher(deps.Bus, "skill."+name),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Name implements Skill.
func (b *base) Name() string { return b.name }

// Level implements Skill.
func (b *base) Level() int { return b.level }

// Dispose implements Skill.
func (b *base) Dispose() {
	b.group.Close()
	b.cancel()
}

func (b *base) disposed() bool {
	return b.ctx.Err() != nil
}

// subscribeUpgrades handles upgrade requests addressed to this skill.
// A request spends one skill point; when none is available the request
// is declined silently. Otherwise the level rises and onUpgrade runs.
func (b *base) subscribeUpgrades(onUpgrade func(ctx context.Context) error) error {
	own := event.FilterPayload(func(u events.UpgradeRequested) bool {
		return u.Skill == b.name
	})

	_, err := event.SubscribePayload(b.group, events.TopicUpgradeRequested,
		func(ctx context.Context, _ events.UpgradeRequested) error {
			if b.disposed() {
				return nil
			}
			err := b.deps.Ledger.ConsumeSkillPoints(ctx, 1)
			if errors.Is(err, ledger.ErrInsufficientSkillPoints) {
				b.logger.Debug("upgrade declined", zap.Error(err))
				return nil
			}
			if err != nil {
				return err
			}

			b.level++
			b.logger.Debug("upgraded", zap.Int("level", b.level))
			var hookErr error
			if onUpgrade != nil {
				hookErr = onUpgrade(ctx)
			}
			return errors.Join(hookErr, b.publishLevel(ctx))
		}, event.WithFilter(own))
	if err != nil {
		return err
	}

	_, err = event.SubscribePayload(b.group, events.TopicSkillPointsChanged,
		func(ctx context.Context, p events.SkillPointsChanged) error {
			if b.disposed() {
				return nil
			}
			return b.publishUpgradable(ctx, p.Points > 0)
		})
	return err
}

func (b *base) publishLevel(ctx context.Context) error {
	return b.pub.PublishEvent(ctx, events.SkillLevelChanged{Skill: b.name, Level: b.level})
}

func (b *base) publishUpgradable(ctx context.Context, available bool) error {
	return b.pub.PublishEvent(ctx, events.UpgradeAvailability{Skill: b.name, Available: available})
}

// discover consumes one prime and announces it.
func (b *base) discover(ctx context.Context) error {
	value := b.deps.Primes.Next()
	return b.pub.PublishEvent(ctx, events.PrimeDiscovered{
		Value: value,
		Count: b.deps.Primes.Count(),
	})
}
