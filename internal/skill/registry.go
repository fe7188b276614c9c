package skill

import (
	"fmt"
	"sort"

	"github.com/dshills/numbertheorist/internal/config"
)

// Factory builds a skill from its collaborators.
type Factory func(deps Deps) (Skill, error)

var factories = map[string]Factory{
	config.SkillEnter:        newEnter,
	config.SkillAuto:         newAuto,
	config.SkillPrimeTheorem: newPrimeTheorem,
}

// New creates the skill registered under name.
// Unknown names fail with *UnknownSkillError.
func New(name string, deps Deps) (Skill, error) {
	factory, ok := factories[name]
	if !ok {
		return nil, &UnknownSkillError{Name: name}
	}
	if err := deps.Validate(); err != nil {
		return nil, fmt.Errorf("create %s: %w", name, err)
	}
	return factory(deps)
}

// Known reports whether name is a registered skill.
func Known(name string) bool {
	_, ok := factories[name]
	return ok
}

// Names returns the registered skill names in sorted order.
func Names() []string {
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
