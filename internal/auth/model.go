package auth

import (
	"context"

	"go.uber.org/zap"
)

type actorKeyType struct{}

var (
	actorKey actorKeyType
)

const (
	RoleTechnician = "technician"
	RoleOffice     = "office"
)

// Actor is whoever issued the current request: a field technician or a
// member of the office staff. Identity is asserted by the caller.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsTechnician() bool {
	return a.Role == RoleTechnician
}

func ActorFromContext(ctx context.Context) (Actor, bool) {
	val := ctx.Value(actorKey)
	if val == nil {
		return Actor{}, false
	}
	return val.(Actor), true
}

func MustHaveActor(ctx context.Context) Actor {
	actor, found := ActorFromContext(ctx)
	if !found {
		zap.S().Named("auth").Panic("failed to find actor in context")
	}
	return actor
}

func NewActorContext(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}
