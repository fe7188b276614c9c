package events

import "github.com/dshills/numbertheorist/internal/event/topic"

// Input event topics.
const (
	// TopicPrimaryInput is published when the player presses the primary button.
	TopicPrimaryInput topic.Topic = "input.primary"

	// TopicUpgradeRequested is published when the player asks to upgrade a skill.
	TopicUpgradeRequested topic.Topic = "input.skill.upgrade"
)

// PrimaryTriggered is the payload of TopicPrimaryInput.
type PrimaryTriggered struct{}

// EventTopic implements event.TopicProvider.
func (PrimaryTriggered) EventTopic() topic.Topic { return TopicPrimaryInput }

// UpgradeRequested is the payload of TopicUpgradeRequested.
type UpgradeRequested struct {
	// Skill is the variant name of the skill to upgrade.
	Skill string
}

// EventTopic implements event.TopicProvider.
func (UpgradeRequested) EventTopic() topic.Topic { return TopicUpgradeRequested }
