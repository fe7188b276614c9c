package event

// FilterBySource creates a filter that only allows events from a specific source.
func FilterBySource(source string) FilterFunc {
	return func(env Envelope) bool {
		return env.Metadata.Source == source
	}
}

// FilterExcludeSource creates a filter that blocks events from a specific source.
func FilterExcludeSource(source string) FilterFunc {
	return func(env Envelope) bool {
		return env.Metadata.Source != source
	}
}

// FilterPayload creates a filter based on the payload.
// Events whose payload is not a T are rejected.
func FilterPayload[T any](predicate func(payload T) bool) FilterFunc {
	return func(env Envelope) bool {
		payload, ok := env.Payload.(T)
		if !ok {
			return false
		}
		return predicate(payload)
	}
}

// FilterAnd combines multiple filters with AND logic.
func FilterAnd(filters ...FilterFunc) FilterFunc {
	return func(env Envelope) bool {
		for _, f := range filters {
			if !f(env) {
				return false
			}
		}
		return true
	}
}

// FilterOr combines multiple filters with OR logic.
func FilterOr(filters ...FilterFunc) FilterFunc {
	return func(env Envelope) bool {
		for _, f := range filters {
			if f(env) {
				return true
			}
		}
		return false
	}
}

// FilterNot negates a filter.
func FilterNot(filter FilterFunc) FilterFunc {
	return func(env Envelope) bool {
		return !filter(env)
	}
}
