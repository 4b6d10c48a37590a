package shared

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const actorKey contextKey = "actor"

// Actor identifies the authenticated caller for audit and authorization.
type Actor struct {
	ID       int64
	TenantID uuid.UUID
	Name     string
	Role     string
}

// ContextWithActor attaches the actor to the context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFromContext returns the actor stored in the context, if any.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok
}
