package environment

import (
	"context"
	"fmt"
)

// Environment names a deployment. Its value doubles as the storage prefix
// under which cached sessions live.
type Environment string

const (
	Development Environment = "dev"
	Preview     Environment = "preview"
	Production  Environment = "prod"
)

// All returns every known environment.
func All() []Environment {
	return []Environment{Development, Preview, Production}
}

// Parse accepts the short names and their long forms.
func Parse(s string) (Environment, error) {
	switch s {
	case "dev", "development":
		return Development, nil
	case "preview", "staging":
		return Preview, nil
	case "prod", "production":
		return Production, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEnvironment, s)
	}
}

// Prefix returns the storage namespace of the environment.
func (e Environment) Prefix() string { return string(e) }

func (e Environment) String() string { return string(e) }

type contextKey struct{}

// WithContext adds environment to context
func WithContext(ctx context.Context, env Environment) context.Context {
	return context.WithValue(ctx, contextKey{}, env)
}

// FromContext retrieves environment from context
func FromContext(ctx context.Context) Environment {
	if ctx == nil {
		return ""
	}
	env, _ := ctx.Value(contextKey{}).(Environment)
	return env
}

// IsProduction checks if the environment from context is production
func IsProduction(ctx context.Context) bool {
	return FromContext(ctx) == Production
}
