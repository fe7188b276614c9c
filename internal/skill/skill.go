package skill

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/numbertheorist/internal/config"
	"github.com/dshills/numbertheorist/internal/event"
	"github.com/dshills/numbertheorist/internal/schedule"
)

// Skill is one roster member.
type Skill interface {
	// Name returns the variant name the skill is registered under.
	Name() string

	// Level returns the skill's current level.
	Level() int

	// Init publishes the skill's initial display state.
	Init(ctx context.Context) error

	// State returns the variant-specific payload.
	State() (json.RawMessage, error)

	// Restore replaces the skill state with a payload from State.
	Restore(ctx context.Context, payload json.RawMessage) error

	// Dispose cancels every subscription and task owned by the skill.
	// It is safe to call more than once.
	Dispose()
}

// Primes is the part of the prime generator skills use.
type Primes interface {
	Next() int
	Current() int
	Count() int
}

// Ledger is the part of the progression ledger skills use.
type Ledger interface {
	Level() int
	SkillPoints() int
	ConsumeSkillPoints(ctx context.Context, n int) error
	GainExperience(ctx context.Context, amount float64) error
}

// Deps are the collaborators handed to every skill.
type Deps struct {
	Bus       event.Bus
	Scheduler schedule.Scheduler
	Primes    Primes
	Ledger    Ledger
	Rules     config.Rules
	Logger    *zap.Logger

	// Context is the parent of every skill context. Cancelling it
	// stops all skills created from these deps.
	Context context.Context
}

// Validate reports the first missing collaborator.
func (d Deps) Validate() error {
	switch {
	case d.Bus == nil:
		return fmt.Errorf("%w: bus", ErrMissingDependency)
	case d.Scheduler == nil:
		return fmt.Errorf("%w: scheduler", ErrMissingDependency)
	case d.Primes == nil:
		return fmt.Errorf("%w: primes", ErrMissingDependency)
	case d.Ledger == nil:
		return fmt.Errorf("%w: ledger", ErrMissingDependency)
	}
	return d.Rules.Validate()
}
