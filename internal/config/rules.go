package config

import (
	"math"
	"time"
)

// Skill names used by the default roster.
const (
	SkillEnter        = "Enter"
	SkillAuto         = "Auto"
	SkillPrimeTheorem = "PrimeTheorem"
)

// Rules is the enumerated configuration surface of a game.
type Rules struct {
	// LevelUpCost returns the experience needed to leave a level.
	LevelUpCost func(level int) float64

	// SkillCount is the number of roster slots.
	SkillCount int

	// Unlocked lists the skills placed in slots 0.. at reset.
	Unlocked []string

	// EnterCooldown returns the Enter cooldown at a player level.
	EnterCooldown func(level int) time.Duration

	// AutoInterval returns the spacing of Auto's primes at a skill level.
	AutoInterval func(level int) time.Duration

	// AutoRepeat returns how many primes one Auto cycle produces.
	AutoRepeat func(level int) int

	// PrimeTheoremBonus returns the bonus experience for a skill level and
	// the ratio of the prime count to x/ln(x).
	PrimeTheoremBonus func(level int, ratio float64) float64
}

// DefaultRules returns the classic formulas.
func DefaultRules() Rules {
	return DefaultSettings().Rules()
}

// Validate checks that every formula is present and the roster fits.
func (r Rules) Validate() error {
	switch {
	case r.LevelUpCost == nil:
		return invalid("rules.levelUpCost", nil, "must be set")
	case r.EnterCooldown == nil:
		return invalid("rules.enterCooldown", nil, "must be set")
	case r.AutoInterval == nil:
		return invalid("rules.autoInterval", nil, "must be set")
	case r.AutoRepeat == nil:
		return invalid("rules.autoRepeat", nil, "must be set")
	case r.PrimeTheoremBonus == nil:
		return invalid("rules.primeTheoremBonus", nil, "must be set")
	case r.SkillCount < 1:
		return invalid("rules.skillCount", r.SkillCount, "must be at least 1")
	case len(r.Unlocked) > r.SkillCount:
		return invalid("rules.unlocked", r.Unlocked, "more skills than slots (%d)", r.SkillCount)
	}

	if c := r.LevelUpCost(0); !(c > 0) || math.IsInf(c, 0) {
		return invalid("rules.levelUpCost", c, "cost at level 0 must be positive")
	}
	for i, name := range r.Unlocked {
		if name == "" {
			return invalid("rules.unlocked", i, "empty skill name")
		}
	}
	return nil
}
