package ledger

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/numbertheorist/internal/event"
	"github.com/dshills/numbertheorist/internal/event/events"
	"github.com/dshills/numbertheorist/internal/event/topic"
)

func linearCost(level int) float64 { return float64(3*level + 1) }

type recorder struct {
	envs []event.Envelope
}

func (r *recorder) topics() []topic.Topic {
	out := make([]topic.Topic, 0, len(r.envs))
	for _, e := range r.envs {
		out = append(out, e.Topic)
	}
	return out
}

func (r *recorder) count(t topic.Topic) int {
	n := 0
	for _, e := range r.envs {
		if e.Topic == t {
			n++
		}
	}
	return n
}

func newLedger(t *testing.T, cost CostFunc) (*Ledger, event.Bus, *recorder) {
	t.Helper()
	bus := event.NewBus()
	rec := &recorder{}
	_, err := bus.SubscribeFunc("**", func(ctx context.Context, env event.Envelope) error {
		rec.envs = append(rec.envs, env)
		return nil
	}, event.WithPriority(event.PriorityLow))
	require.NoError(t, err)

	l, err := New(bus, cost)
	require.NoError(t, err)
	return l, bus, rec
}

func TestNew_InitialState(t *testing.T) {
	l, _, _ := newLedger(t, linearCost)

	assert.Equal(t, State{ExperienceToNextLevel: 1}, l.State())
}

func TestNew_InvalidCost(t *testing.T) {
	bus := event.NewBus()

	_, err := New(bus, nil)
	assert.ErrorIs(t, err, ErrInvalidCost)

	_, err = New(bus, func(int) float64 { return 0 })
	assert.ErrorIs(t, err, ErrInvalidCost)

	_, err = New(bus, func(int) float64 { return math.NaN() })
	assert.ErrorIs(t, err, ErrInvalidCost)
}

func TestGainExperience_ExactThresholdAtLevelZero(t *testing.T) {
	l, _, rec := newLedger(t, linearCost)
	ctx := context.Background()

	require.NoError(t, l.GainExperience(ctx, linearCost(0)))

	assert.Equal(t, 1, l.Level())
	assert.Equal(t, 1, l.SkillPoints())
	assert.Equal(t, 0.0, l.Experience())
	assert.Equal(t, 4.0, l.ExperienceToNextLevel())
	assert.Equal(t, []topic.Topic{
		events.TopicLevelChanged,
		events.TopicSkillPointsChanged,
		events.TopicExperienceBar,
	}, rec.topics())
}

func TestGainExperience_MultipleLevels(t *testing.T) {
	l, _, rec := newLedger(t, linearCost)

	// 1 + 4 + 7 = 12 reaches level 3, 0.5 left over.
	require.NoError(t, l.GainExperience(context.Background(), 12.5))

	assert.Equal(t, 3, l.Level())
	assert.Equal(t, 3, l.SkillPoints())
	assert.InDelta(t, 0.5, l.Experience(), 1e-9)
	assert.Less(t, l.Experience(), l.ExperienceToNextLevel())
	assert.Equal(t, 3, rec.count(events.TopicLevelChanged))
	assert.Equal(t, 3, rec.count(events.TopicSkillPointsChanged))
	assert.Equal(t, 1, rec.count(events.TopicExperienceBar))
}

func TestGainExperience_IgnoresNonPositive(t *testing.T) {
	l, _, rec := newLedger(t, linearCost)
	ctx := context.Background()

	for _, amount := range []float64{0, -3, math.NaN()} {
		require.NoError(t, l.GainExperience(ctx, amount))
	}
	assert.Equal(t, 0.0, l.Experience())
	assert.Empty(t, rec.envs)
}

func TestGainExperience_InvariantHoldsForManyAmounts(t *testing.T) {
	l, _, _ := newLedger(t, linearCost)
	ctx := context.Background()

	for i := 1; i <= 200; i++ {
		require.NoError(t, l.GainExperience(ctx, float64(i%17)+0.25))
		require.Less(t, l.Experience(), l.ExperienceToNextLevel())
		require.Equal(t, l.Level(), l.SkillPoints())
	}
}

func TestGainExperience_InvalidCostStopsLoop(t *testing.T) {
	cost := func(level int) float64 {
		if level >= 2 {
			return 0
		}
		return 1
	}
	l, _, _ := newLedger(t, cost)

	err := l.GainExperience(context.Background(), 10)
	assert.ErrorIs(t, err, ErrInvalidCost)
	assert.Equal(t, 1, l.Level())
}

func TestPrimeDiscoveredGrantsExperience(t *testing.T) {
	l, bus, rec := newLedger(t, linearCost)
	ctx := context.Background()

	require.NoError(t, bus.PublishEvent(ctx, events.PrimeDiscovered{Value: 2, Count: 1}))

	assert.Equal(t, 1, l.Level())
	require.GreaterOrEqual(t, len(rec.envs), 2)

	// The ledger runs at high priority, so its signals precede the
	// low-priority recorder's copy of the prime itself.
	entry, ok := event.PayloadAs[events.LogEntry](rec.envs[0])
	require.True(t, ok)
	assert.Equal(t, "New prime 2", entry.Text)
	assert.Equal(t, events.TopicPrimeDiscovered, rec.envs[len(rec.envs)-1].Topic)
}

func TestConsumeSkillPoints(t *testing.T) {
	l, _, rec := newLedger(t, linearCost)
	ctx := context.Background()
	require.NoError(t, l.GainExperience(ctx, 1))
	rec.envs = nil

	err := l.ConsumeSkillPoints(ctx, 2)
	assert.ErrorIs(t, err, ErrInsufficientSkillPoints)
	assert.Equal(t, 1, l.SkillPoints())
	assert.Empty(t, rec.envs)

	require.NoError(t, l.ConsumeSkillPoints(ctx, 1))
	assert.Equal(t, 0, l.SkillPoints())
	assert.Equal(t, []topic.Topic{events.TopicSkillPointsChanged}, rec.topics())

	assert.ErrorIs(t, l.ConsumeSkillPoints(ctx, 1), ErrInsufficientSkillPoints)
}

func TestRestore(t *testing.T) {
	l, _, rec := newLedger(t, linearCost)
	ctx := context.Background()

	s := State{Experience: 3, Level: 2, SkillPoints: 1, ExperienceToNextLevel: 7}
	require.NoError(t, l.Restore(ctx, s))
	assert.Equal(t, s, l.State())
	assert.Equal(t, 1, rec.count(events.TopicLevelChanged))
	assert.Equal(t, 1, rec.count(events.TopicExperienceBar))
}

func TestRestore_RejectsInvalidState(t *testing.T) {
	l, _, _ := newLedger(t, linearCost)
	ctx := context.Background()

	tests := []struct {
		name  string
		state State
	}{
		{"negative experience", State{Experience: -1, ExperienceToNextLevel: 1}},
		{"negative level", State{Level: -1, ExperienceToNextLevel: 1}},
		{"negative points", State{SkillPoints: -1, ExperienceToNextLevel: 1}},
		{"zero threshold", State{}},
		{"experience over threshold", State{Experience: 5, ExperienceToNextLevel: 4}},
		{"over configured threshold", State{Experience: 2, Level: 0, ExperienceToNextLevel: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := l.State()
			assert.ErrorIs(t, l.Restore(ctx, tt.state), ErrInvalidState)
			assert.Equal(t, before, l.State())
		})
	}
}

func TestReset(t *testing.T) {
	l, _, _ := newLedger(t, linearCost)
	ctx := context.Background()
	require.NoError(t, l.GainExperience(ctx, 20))

	require.NoError(t, l.Reset(ctx))
	assert.Equal(t, State{ExperienceToNextLevel: 1}, l.State())
}

func TestClose(t *testing.T) {
	l, bus, _ := newLedger(t, linearCost)
	l.Close()
	l.Close()

	require.NoError(t, bus.PublishEvent(context.Background(), events.PrimeDiscovered{Value: 2, Count: 1}))
	assert.Equal(t, 0.0, l.Experience())
	assert.Equal(t, 0, l.Level())
}
