package skill

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/dshills/numbertheorist/internal/config"
	"github.com/dshills/numbertheorist/internal/cooldown"
	"github.com/dshills/numbertheorist/internal/event"
	"github.com/dshills/numbertheorist/internal/event/events"
)

// Enter discovers one prime per primary action, gated by a cooldown.
// Its level follows the player level.
type Enter struct {
	*base
	timer *cooldown.Timer
}

type enterState struct {
	Level    int            `json:"level"`
	Cooldown cooldown.State `json:"cooldown"`
}

func newEnter(deps Deps) (Skill, error) {
	e := &Enter{
		base:  newBase(config.SkillEnter, deps),
		timer: cooldown.New(deps.Scheduler),
	}

	if _, err := event.SubscribePayload(e.group, events.TopicPrimaryInput, e.onTrigger); err != nil {
		e.Dispose()
		return nil, err
	}
	if _, err := event.SubscribePayload(e.group, events.TopicLevelChanged, e.onLevel); err != nil {
		e.Dispose()
		return nil, err
	}
	return e, nil
}

// Init implements Skill.
func (e *Enter) Init(ctx context.Context) error {
	e.level = e.deps.Ledger.Level()
	if err := e.timer.Arm(e.deps.Rules.EnterCooldown(e.level)); err != nil {
		return err
	}
	return errors.Join(e.publishLevel(ctx), e.publishCooldown(ctx))
}

// Ready reports whether the cooldown has elapsed.
func (e *Enter) Ready() bool {
	return e.timer.Ready()
}

func (e *Enter) onTrigger(ctx context.Context, _ events.PrimaryTriggered) error {
	if e.disposed() || !e.timer.Ready() {
		return nil
	}
	e.timer.Touch()
	return errors.Join(e.publishCooldown(ctx), e.discover(ctx))
}

func (e *Enter) onLevel(ctx context.Context, l events.LevelChanged) error {
	if e.disposed() {
		return nil
	}
	e.level = l.Level
	if err := e.timer.Arm(e.deps.Rules.EnterCooldown(e.level)); err != nil {
		return err
	}
	return e.publishLevel(ctx)
}

func (e *Enter) publishCooldown(ctx context.Context) error {
	return e.pub.PublishEvent(ctx, events.CooldownChanged{
		Skill:     e.name,
		Remaining: e.timer.Remaining(),
		Total:     e.timer.Duration(),
	})
}

// State implements Skill.
func (e *Enter) State() (json.RawMessage, error) {
	return json.Marshal(enterState{Level: e.level, Cooldown: e.timer.State()})
}

// Restore implements Skill.
func (e *Enter) Restore(ctx context.Context, payload json.RawMessage) error {
	var s enterState
	if err := json.Unmarshal(payload, &s); err != nil {
		return payloadError(e.name, err)
	}
	if s.Level < 0 {
		return invalidPayload(e.name, "negative level %d", s.Level)
	}
	if err := e.timer.Restore(s.Cooldown); err != nil {
		return payloadError(e.name, err)
	}

	e.level = s.Level
	return errors.Join(e.publishLevel(ctx), e.publishCooldown(ctx))
}
