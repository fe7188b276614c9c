// Package events defines the topics and typed payloads carried by the game bus.
//
// Topics are grouped by direction:
//
//   - Input events: signals delivered by the input collaborator
//   - Prime events: discoveries made by skills
//   - Progress events: ledger level and skill point changes
//   - Display events: abstract presentation updates
//
// Every payload implements event.TopicProvider, so it can be published
// without repeating its topic:
//
//	bus.PublishEvent(ctx, events.LogEntry{Text: "found 7"})
//
// # Topic Naming Convention
//
// Topics follow a hierarchical dot-notation:
//
//	<area>.<entity>.<action>
//
// The presentation layer subscribes to "display.**" and "progress.**".
package events
