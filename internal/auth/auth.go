package auth

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const (
	ActorIDHeader   = "X-Actor-ID"
	ActorRoleHeader = "X-Actor-Role"

	anonymousActor = "anonymous"
)

type Identifier interface {
	Identifier(next http.Handler) http.Handler
}

// HeaderIdentifier reads the actor from request headers. Requests without
// an actor id are served as an anonymous office actor so read-only calls
// keep working; mutating handlers reject the anonymous actor themselves.
type HeaderIdentifier struct{}

func NewIdentifier() Identifier {
	zap.S().Named("auth").Info("actor identification: request headers")
	return &HeaderIdentifier{}
}

func (h *HeaderIdentifier) Identifier(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := Actor{
			ID:   strings.TrimSpace(r.Header.Get(ActorIDHeader)),
			Role: strings.ToLower(strings.TrimSpace(r.Header.Get(ActorRoleHeader))),
		}
		if actor.ID == "" {
			actor.ID = anonymousActor
		}
		if actor.Role != RoleTechnician {
			actor.Role = RoleOffice
		}

		ctx := NewActorContext(r.Context(), actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func IsAnonymous(a Actor) bool {
	return a.ID == anonymousActor
}
