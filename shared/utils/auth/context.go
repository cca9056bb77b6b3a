package utils

import (
	"context"

	"github.com/google/uuid"
)

type actorContextKey struct{}

// WithActor stamps the authenticated user's identity onto the request
// context. Only the auth middleware writes this; downstream code that
// needs attribution reads it with ActorFromContext instead of trusting a
// caller-supplied field.
func WithActor(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, actorContextKey{}, userID)
}

// ActorFromContext returns the authenticated actor set by the auth
// middleware, if any.
func ActorFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(actorContextKey{}).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}
