package app

import (
	"context"
	"strings"
)

// ActorType classifies who issued a mutation.
type ActorType string

// ActorType values.
const (
	ActorTypeUser   ActorType = "user"
	ActorTypeAgent  ActorType = "agent"
	ActorTypeSystem ActorType = "system"
)

// anonymousActorID is stamped when no identity is available.
const anonymousActorID = "anonymous"

// Actor carries normalized caller identity for attribution fields.
type Actor struct {
	ID   string
	Type ActorType
}

// WithActor attaches a normalized actor to context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, normalizeActor(actor))
}

// ActorFromContext returns the actor attached to ctx when present.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(Actor)
	if !ok {
		return Actor{}, false
	}
	actor = normalizeActor(actor)
	if actor.ID == "" {
		return Actor{}, false
	}
	return actor, true
}

// actorContextKey stores context keys for actor values.
type actorContextKey struct{}

// normalizeActor trims and canonicalizes actor fields.
func normalizeActor(actor Actor) Actor {
	actor.ID = strings.TrimSpace(actor.ID)
	actor.Type = ActorType(strings.TrimSpace(strings.ToLower(string(actor.Type))))
	switch actor.Type {
	case ActorTypeUser, ActorTypeAgent, ActorTypeSystem:
	default:
		actor.Type = ActorTypeUser
	}
	return actor
}

// resolveActorID prefers the context actor, then the configured provider.
func resolveActorID(ctx context.Context, provider ActorProvider) (string, error) {
	if actor, ok := ActorFromContext(ctx); ok {
		return actor.ID, nil
	}
	if provider == nil {
		return anonymousActorID, nil
	}
	id, err := provider.ActorID(ctx)
	if err != nil {
		return "", err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return anonymousActorID, nil
	}
	return id, nil
}
