// Package topic provides hierarchical event names and pattern matching for the event bus.
//
// # Topic Format
//
// Topics use dot-notation to create hierarchical namespaces:
//
//	input.primary
//	prime.discovered
//	progress.level.changed
//	display.slot.populated
//
// # Wildcards
//
// Subscriptions may use two wildcard patterns:
//
//   - "*" matches exactly one segment
//   - "**" matches zero or more segments
//
// Examples:
//
//	display.*             matches display.log, display.cooldown (not display.slot.cleared)
//	display.**            matches display.log, display.slot.cleared
//	progress.*.changed    matches progress.level.changed, progress.skillpoints.changed
//	**                    matches everything
//
// Published topics are always concrete; only subscription patterns carry wildcards.
package topic
