package skill

import (
	"errors"
	"fmt"
)

// Errors returned by skills.
var (
	// ErrUnknownSkill is matched by every UnknownSkillError.
	ErrUnknownSkill = errors.New("skill: unknown skill")

	// ErrMissingDependency is returned when Deps lacks a collaborator.
	ErrMissingDependency = errors.New("skill: missing dependency")

	// ErrInvalidPayload is returned when a saved payload cannot be restored.
	ErrInvalidPayload = errors.New("skill: invalid payload")
)

// UnknownSkillError names a skill that is not in the registry.
type UnknownSkillError struct {
	Name string
}

// Error implements the error interface.
func (e *UnknownSkillError) Error() string {
	return fmt.Sprintf("skill: unknown skill %q", e.Name)
}

// Is allows errors.Is to match UnknownSkillError with ErrUnknownSkill.
func (e *UnknownSkillError) Is(target error) bool {
	return target == ErrUnknownSkill
}

func invalidPayload(name string, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrInvalidPayload, name, fmt.Sprintf(format, args...))
}

func payloadError(name string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInvalidPayload, name, err)
}
