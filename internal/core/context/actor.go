// Package context provides request-scoped values extraction.
package context

import (
	"context"
)

// ActorContext identifies who performs an operation (cashier, manager, system job).
type ActorContext struct {
	Username string
	FullName string
	StoreID  string
	Roles    []string
}

type actorContextKey struct{}

// SystemActor is recorded when no authenticated actor is present.
const SystemActor = "system"

// WithActor adds ActorContext to context.
func WithActor(ctx context.Context, actor *ActorContext) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// GetActor returns ActorContext from context.
func GetActor(ctx context.Context) *ActorContext {
	if v, ok := ctx.Value(actorContextKey{}).(*ActorContext); ok {
		return v
	}
	return nil
}

// GetActorName returns the actor username or SystemActor.
func GetActorName(ctx context.Context) string {
	if a := GetActor(ctx); a != nil && a.Username != "" {
		return a.Username
	}
	return SystemActor
}

// HasRole checks if actor has specific role.
func HasRole(ctx context.Context, role string) bool {
	a := GetActor(ctx)
	if a == nil {
		return false
	}
	for _, r := range a.Roles {
		if r == role {
			return true
		}
	}
	return false
}
