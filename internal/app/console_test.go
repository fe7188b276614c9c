package app

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/numbertheorist/internal/event"
	"github.com/dshills/numbertheorist/internal/event/events"
)

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    string
	}{
		{"log", events.LogEntry{Text: "New prime 7"}, "New prime 7"},
		{"level", events.LevelChanged{Level: 3}, "level 3"},
		{"points", events.SkillPointsChanged{Points: 2}, "skill points: 2"},
		{"experience", events.ExperienceBar{Current: 1.5, Max: 8}, "experience 1.5/8"},
		{"cooldown", events.CooldownChanged{Skill: "Auto", Remaining: 1500 * time.Millisecond, Total: 1500 * time.Millisecond}, "Auto busy for 1.5s"},
		{"idle cooldown", events.CooldownChanged{Skill: "Auto"}, ""},
		{"slot", events.SlotPopulated{Index: 1, Skill: "Auto"}, "slot 1: Auto"},
		{"cleared", events.SlotCleared{Index: 1}, ""},
		{"skill level", events.SkillLevelChanged{Skill: "Enter", Level: 2}, "Enter level 2"},
		{"upgradable", events.UpgradeAvailability{Skill: "Auto", Available: true}, "Auto can be upgraded (up Auto)"},
		{"not upgradable", events.UpgradeAvailability{Skill: "Auto"}, ""},
		{"fresh status", events.Status{NextLevelAt: 4}, "level 0, experience 0/4, skill points 0, primes 0 (last none)"},
		{"status", events.Status{Level: 1, Experience: 2, NextLevelAt: 7, SkillPoints: 1, Current: 13, Count: 6}, "level 1, experience 2/7, skill points 1, primes 6 (last 13)"},
		{"other", events.PrimeDiscovered{Value: 2, Count: 1}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatEvent(tt.payload))
		})
	}
}

func TestConsole_Attach(t *testing.T) {
	bus := event.NewBus()
	group := event.NewGroup(bus)
	defer group.Close()

	var out bytes.Buffer
	console := NewConsole(&out)
	require.NoError(t, console.Attach(group))

	ctx := context.Background()
	require.NoError(t, bus.PublishEvent(ctx, events.LogEntry{Text: "New prime 2"}))
	require.NoError(t, bus.PublishEvent(ctx, events.SlotCleared{Index: 0}))
	require.NoError(t, bus.PublishEvent(ctx, events.LevelChanged{Level: 1}))
	require.NoError(t, bus.PublishEvent(ctx, events.PrimeDiscovered{Value: 3, Count: 2}))

	assert.Equal(t, "New prime 2\nlevel 1\n", out.String())
}
