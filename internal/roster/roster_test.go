package roster

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/numbertheorist/internal/config"
	"github.com/dshills/numbertheorist/internal/event"
	"github.com/dshills/numbertheorist/internal/event/events"
	"github.com/dshills/numbertheorist/internal/ledger"
	"github.com/dshills/numbertheorist/internal/prime"
	"github.com/dshills/numbertheorist/internal/schedule"
	"github.com/dshills/numbertheorist/internal/skill"
)

type fixture struct {
	ctx     context.Context
	bus     event.Bus
	primes  *prime.Generator
	ledger  *ledger.Ledger
	manager *Manager
	topics  []string
}

func newFixture(t *testing.T, size int, defaults ...string) *fixture {
	t.Helper()

	sched := schedule.NewManual(schedule.Epoch)
	bus := event.NewBus()
	rules := config.DefaultRules()

	led, err := ledger.New(bus, rules.LevelUpCost)
	require.NoError(t, err)

	f := &fixture{
		ctx:    context.Background(),
		bus:    bus,
		primes: prime.New(sched),
		ledger: led,
	}
	_, err = bus.SubscribeFunc("display.slot.*", func(_ context.Context, env event.Envelope) error {
		switch p := env.Payload.(type) {
		case events.SlotCleared:
			f.topics = append(f.topics, fmt.Sprintf("cleared:%d", p.Index))
		case events.SlotPopulated:
			f.topics = append(f.topics, fmt.Sprintf("populated:%d:%s", p.Index, p.Skill))
		}
		return nil
	})
	require.NoError(t, err)

	f.manager, err = New(skill.Deps{
		Bus:       bus,
		Scheduler: sched,
		Primes:    f.primes,
		Ledger:    led,
		Rules:     rules,
	}, size, defaults)
	require.NoError(t, err)
	t.Cleanup(f.manager.Close)
	return f
}

func (f *fixture) names() []string {
	out := make([]string, f.manager.Size())
	for i := range out {
		if s := f.manager.Slot(i); s != nil {
			out[i] = s.Name()
		}
	}
	return out
}

func TestNew_Validation(t *testing.T) {
	deps := skill.Deps{}
	_, err := New(deps, 0, nil)
	assert.ErrorIs(t, err, ErrInvalidRoster)

	_, err = New(deps, 1, []string{config.SkillEnter, config.SkillAuto})
	assert.ErrorIs(t, err, ErrInvalidRoster)

	_, err = New(deps, 2, []string{"Sieve"})
	assert.ErrorIs(t, err, skill.ErrUnknownSkill)

	_, err = New(deps, 2, nil)
	assert.ErrorIs(t, err, skill.ErrMissingDependency)
}

func TestManager_Reset(t *testing.T) {
	f := newFixture(t, 4, config.SkillEnter, config.SkillAuto)

	require.NoError(t, f.manager.Reset(f.ctx))
	assert.Equal(t, []string{config.SkillEnter, config.SkillAuto, "", ""}, f.names())
	assert.Equal(t, []string{
		"cleared:0", "cleared:1", "cleared:2", "cleared:3",
		"populated:0:Enter", "populated:1:Auto",
	}, f.topics)

	s, slot, ok := f.manager.Find(config.SkillAuto)
	require.True(t, ok)
	assert.Equal(t, 1, slot)
	assert.Equal(t, config.SkillAuto, s.Name())
}

func TestManager_InstantiateReplacesOccupant(t *testing.T) {
	f := newFixture(t, 2, config.SkillEnter)
	require.NoError(t, f.manager.Reset(f.ctx))

	old := f.manager.Slot(0)
	require.NoError(t, f.manager.Instantiate(f.ctx, 0, config.SkillEnter, nil))
	assert.NotSame(t, old, f.manager.Slot(0))

	// Only the new Enter answers the trigger.
	require.NoError(t, f.bus.PublishEvent(f.ctx, events.PrimaryTriggered{}))
	assert.Equal(t, 1, f.primes.Count())
}

func TestManager_InstantiateErrors(t *testing.T) {
	f := newFixture(t, 2, config.SkillEnter)
	require.NoError(t, f.manager.Reset(f.ctx))

	assert.ErrorIs(t, f.manager.Instantiate(f.ctx, 2, config.SkillAuto, nil), ErrSlotOutOfRange)
	assert.ErrorIs(t, f.manager.Instantiate(f.ctx, -1, config.SkillAuto, nil), ErrSlotOutOfRange)

	err := f.manager.Instantiate(f.ctx, 0, "Sieve", nil)
	assert.ErrorIs(t, err, skill.ErrUnknownSkill)
	assert.Nil(t, f.manager.Slot(0))

	err = f.manager.Instantiate(f.ctx, 1, config.SkillAuto, json.RawMessage(`{"level":-1}`))
	assert.ErrorIs(t, err, skill.ErrInvalidPayload)
	assert.Nil(t, f.manager.Slot(1))
}

func TestManager_StateRoundTrip(t *testing.T) {
	f := newFixture(t, 4, config.SkillEnter, config.SkillAuto)
	require.NoError(t, f.manager.Reset(f.ctx))
	require.NoError(t, f.manager.Instantiate(f.ctx, 3, config.SkillPrimeTheorem, json.RawMessage(`{"level":2}`)))
	require.NoError(t, f.manager.Instantiate(f.ctx, 1, config.SkillAuto, json.RawMessage(`{"level":3,"running":false,"remaining":0}`)))

	saved, err := f.manager.State()
	require.NoError(t, err)
	require.Len(t, saved, 4)
	assert.Nil(t, saved[2])

	require.NoError(t, f.manager.Restore(f.ctx, saved))
	assert.Equal(t, []string{config.SkillEnter, config.SkillAuto, "", config.SkillPrimeTheorem}, f.names())
	assert.Equal(t, 3, f.manager.Slot(1).Level())
	assert.Equal(t, 2, f.manager.Slot(3).Level())

	again, err := f.manager.State()
	require.NoError(t, err)
	assert.Equal(t, saved, again)
}

func TestManager_RestoreEmptiesMissingSlots(t *testing.T) {
	f := newFixture(t, 3, config.SkillEnter, config.SkillAuto)
	require.NoError(t, f.manager.Reset(f.ctx))

	require.NoError(t, f.manager.Restore(f.ctx, []*Entry{nil, {Name: config.SkillPrimeTheorem}}))
	assert.Equal(t, []string{"", config.SkillPrimeTheorem, ""}, f.names())

	// Nothing answers the trigger once Enter is gone.
	require.NoError(t, f.bus.PublishEvent(f.ctx, events.PrimaryTriggered{}))
	assert.Equal(t, 0, f.primes.Count())
}

func TestManager_RestoreRejectsBadRosters(t *testing.T) {
	f := newFixture(t, 2, config.SkillEnter)
	require.NoError(t, f.manager.Reset(f.ctx))

	err := f.manager.Restore(f.ctx, []*Entry{nil, nil, nil})
	assert.ErrorIs(t, err, ErrInvalidRoster)

	err = f.manager.Restore(f.ctx, []*Entry{{Name: "Sieve"}})
	assert.ErrorIs(t, err, skill.ErrUnknownSkill)

	// Rejected rosters leave the current one untouched.
	assert.Equal(t, []string{config.SkillEnter, ""}, f.names())
}
