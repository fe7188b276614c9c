// Package config holds the game's configuration surface.
//
// Rules is the value threaded through the game: the level-up cost, the
// roster size and default skills, and the per-skill formulas. Rules are
// plain functions so any formula set can be plugged in; DefaultRules
// reproduces the classic game.
//
// Settings is the file and environment backed description of the
// formula parameters plus ambient options such as logging. It is loaded
// from TOML or YAML and then overridden from NUMBERTHEORIST_* variables:
//
//	s, err := config.Load("numbertheorist.toml")
//	if err != nil {
//	    return err
//	}
//	rules := s.Rules()
//
// Configuration is read once per session; nothing watches for changes.
package config
