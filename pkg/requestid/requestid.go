// Package requestid carries the correlation id of an API call through the
// request context and into outgoing client calls.
package requestid

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

// Header is the HTTP header the id travels in, both ways.
const Header = "x-request-id"

type ctxKey struct{}

func Generate() string {
	return uuid.NewString()
}

func ToContext(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, id)
}

func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

func FromRequest(r *http.Request) string {
	return FromContext(r.Context())
}
