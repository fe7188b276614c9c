// Package skill implements the roster skills of the game.
//
// A skill subscribes to bus events through its own subscription group,
// keeps its level and timing state, and publishes the primes or
// experience it produces. Skills are created by name from a closed
// registry:
//
//	s, err := skill.New(config.SkillAuto, deps)
//	if err != nil {
//	    return err
//	}
//	if err := s.Init(ctx); err != nil {
//	    return err
//	}
//	defer s.Dispose()
//
// Dispose cancels every subscription and scheduled task the skill owns.
// A disposed skill ignores events that were already in flight.
package skill
