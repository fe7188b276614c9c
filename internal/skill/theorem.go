package skill

import (
	"context"
	"encoding/json"
	"errors"
	"math"

	"go.uber.org/zap"

	"github.com/dshills/numbertheorist/internal/config"
	"github.com/dshills/numbertheorist/internal/event"
	"github.com/dshills/numbertheorist/internal/event/events"
)

// PrimeTheorem grants bonus experience according to how far the prime
// count strays from x/ln(x).
type PrimeTheorem struct {
	*base
}

type primeTheoremState struct {
	Level int `json:"level"`
}

func newPrimeTheorem(deps Deps) (Skill, error) {
	p := &PrimeTheorem{base: newBase(config.SkillPrimeTheorem, deps)}

	if _, err := event.SubscribePayload(p.group, events.TopicPrimeDiscovered, p.onPrime); err != nil {
		p.Dispose()
		return nil, err
	}
	if err := p.subscribeUpgrades(nil); err != nil {
		p.Dispose()
		return nil, err
	}
	return p, nil
}

// Init implements Skill.
func (p *PrimeTheorem) Init(ctx context.Context) error {
	return errors.Join(
		p.publishLevel(ctx),
		p.publishUpgradable(ctx, p.deps.Ledger.SkillPoints() > 0),
	)
}

// Ratio returns the prime count divided by x/ln(x).
// It returns NaN for x < 2.
func Ratio(count, x int) float64 {
	if x < 2 {
		return math.NaN()
	}
	fx := float64(x)
	return float64(count) / (fx / math.Log(fx))
}

func (p *PrimeTheorem) onPrime(ctx context.Context, d events.PrimeDiscovered) error {
	if p.disposed() || p.level <= 0 {
		return nil
	}

	ratio := Ratio(p.deps.Primes.Count(), d.Value)
	bonus := p.deps.Rules.PrimeTheoremBonus(p.level, ratio)
	if !(bonus > 0) || math.IsInf(bonus, 0) {
		return nil
	}

	p.logger.Debug("bonus", zap.Int("prime", d.Value), zap.Float64("ratio", ratio), zap.Float64("bonus", bonus))
	return p.deps.Ledger.GainExperience(ctx, bonus)
}

// State implements Skill.
func (p *PrimeTheorem) State() (json.RawMessage, error) {
	return json.Marshal(primeTheoremState{Level: p.level})
}

// Restore implements Skill.
func (p *PrimeTheorem) Restore(ctx context.Context, payload json.RawMessage) error {
	var s primeTheoremState
	if err := json.Unmarshal(payload, &s); err != nil {
		return payloadError(p.name, err)
	}
	if s.Level < 0 {
		return invalidPayload(p.name, "negative level %d", s.Level)
	}
	p.level = s.Level
	return p.publishLevel(ctx)
}
