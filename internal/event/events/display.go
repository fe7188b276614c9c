package events

import (
	"time"

	"github.com/dshills/numbertheorist/internal/event/topic"
)

// Display event topics.
const (
	// TopicExperienceBar is published when experience or its threshold changes.
	TopicExperienceBar topic.Topic = "display.experience"

	// TopicCooldownChanged is published when a skill starts a cooldown or cycle.
	TopicCooldownChanged topic.Topic = "display.cooldown"

	// TopicSlotPopulated is published when a skill is placed in a roster slot.
	TopicSlotPopulated topic.Topic = "display.slot.populated"

	// TopicSlotCleared is published when a roster slot is emptied.
	TopicSlotCleared topic.Topic = "display.slot.cleared"

	// TopicLogEntry carries a line of game log text.
	TopicLogEntry topic.Topic = "display.log"

	// TopicSkillLevel is published when a skill's level changes.
	TopicSkillLevel topic.Topic = "display.skill.level"

	// TopicUpgradeAvailability is published when a skill's upgrade becomes
	// affordable or stops being affordable.
	TopicUpgradeAvailability topic.Topic = "display.skill.upgradable"

	// TopicStatus carries a summary of the whole game.
	TopicStatus topic.Topic = "display.status"
)

// ExperienceBar is the payload of TopicExperienceBar.
type ExperienceBar struct {
	Current float64
	Max     float64
}

// EventTopic implements event.TopicProvider.
func (ExperienceBar) EventTopic() topic.Topic { return TopicExperienceBar }

// CooldownChanged is the payload of TopicCooldownChanged.
type CooldownChanged struct {
	// Skill is the variant name of the skill.
	Skill string

	// Remaining is the time left before the skill is ready again.
	Remaining time.Duration

	// Total is the full length of the cooldown or cycle.
	Total time.Duration
}

// EventTopic implements event.TopicProvider.
func (CooldownChanged) EventTopic() topic.Topic { return TopicCooldownChanged }

// SlotPopulated is the payload of TopicSlotPopulated.
type SlotPopulated struct {
	Index int
	Skill string
}

// EventTopic implements event.TopicProvider.
func (SlotPopulated) EventTopic() topic.Topic { return TopicSlotPopulated }

// SlotCleared is the payload of TopicSlotCleared.
type SlotCleared struct {
	Index int
}

// EventTopic implements event.TopicProvider.
func (SlotCleared) EventTopic() topic.Topic { return TopicSlotCleared }

// LogEntry is the payload of TopicLogEntry.
type LogEntry struct {
	Text string
}

// EventTopic implements event.TopicProvider.
func (LogEntry) EventTopic() topic.Topic { return TopicLogEntry }

// SkillLevelChanged is the payload of TopicSkillLevel.
type SkillLevelChanged struct {
	Skill string
	Level int
}

// EventTopic implements event.TopicProvider.
func (SkillLevelChanged) EventTopic() topic.Topic { return TopicSkillLevel }

// UpgradeAvailability is the payload of TopicUpgradeAvailability.
type UpgradeAvailability struct {
	Skill     string
	Available bool
}

// EventTopic implements event.TopicProvider.
func (UpgradeAvailability) EventTopic() topic.Topic { return TopicUpgradeAvailability }

// Status is the payload of TopicStatus.
type Status struct {
	Level       int
	Experience  float64
	NextLevelAt float64
	SkillPoints int

	// Current is the most recently discovered prime, 0 before the first.
	Current int

	// Count is the number of primes discovered.
	Count int
}

// EventTopic implements event.TopicProvider.
func (Status) EventTopic() topic.Topic { return TopicStatus }
