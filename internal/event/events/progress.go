package events

import "github.com/dshills/numbertheorist/internal/event/topic"

// Progress event topics.
const (
	// TopicLevelChanged is published once per level gained.
	TopicLevelChanged topic.Topic = "progress.level.changed"

	// TopicSkillPointsChanged is published whenever the skill point balance changes.
	TopicSkillPointsChanged topic.Topic = "progress.skillpoints.changed"
)

// LevelChanged is the payload of TopicLevelChanged.
type LevelChanged struct {
	Level int
}

// EventTopic implements event.TopicProvider.
func (LevelChanged) EventTopic() topic.Topic { return TopicLevelChanged }

// SkillPointsChanged is the payload of TopicSkillPointsChanged.
type SkillPointsChanged struct {
	Points int
}

// EventTopic implements event.TopicProvider.
func (SkillPointsChanged) EventTopic() topic.Topic { return TopicSkillPointsChanged }
