package loader

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// ApplyEnv overrides fields of v from environment variables named by
// their `env` tags, each prefixed with prefix (e.g. "NUMBERTHEORIST_").
// Unset variables leave fields untouched.
func ApplyEnv(v any, prefix string) error {
	return ApplyEnvFrom(v, prefix, nil)
}

// ApplyEnvFrom is ApplyEnv reading from environ instead of the process
// environment. A nil environ reads the process environment.
func ApplyEnvFrom(v any, prefix string, environ map[string]string) error {
	opts := env.Options{Prefix: prefix}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(v, opts); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
