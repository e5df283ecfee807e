package app

import (
	"context"
	"errors"
	"testing"
)

// stubActors returns a fixed actor id or error.
type stubActors struct {
	id  string
	err error
}

// ActorID returns the configured id.
func (s stubActors) ActorID(context.Context) (string, error) {
	return s.id, s.err
}

// TestActorContextRoundTrip verifies normalization and retrieval from context.
func TestActorContextRoundTrip(t *testing.T) {
	ctx := WithActor(context.Background(), Actor{ID: " inspector-7 ", Type: " AGENT "})
	actor, ok := ActorFromContext(ctx)
	if !ok {
		t.Fatal("ActorFromContext() expected actor")
	}
	if actor.ID != "inspector-7" || actor.Type != ActorTypeAgent {
		t.Fatalf("unexpected actor %#v", actor)
	}

	unknown := WithActor(context.Background(), Actor{ID: "u", Type: "robot"})
	if actor, _ := ActorFromContext(unknown); actor.Type != ActorTypeUser {
		t.Fatalf("Type = %q, want user", actor.Type)
	}
	if _, ok := ActorFromContext(WithActor(context.Background(), Actor{ID: "  "})); ok {
		t.Fatal("ActorFromContext() expected no actor for blank id")
	}
}

// TestResolveActorIDPrecedence verifies context actors win over the provider.
func TestResolveActorIDPrecedence(t *testing.T) {
	ctx := context.Background()
	if id, err := resolveActorID(ctx, nil); err != nil || id != anonymousActorID {
		t.Fatalf("resolveActorID(nil) = %q, %v", id, err)
	}
	if id, err := resolveActorID(ctx, stubActors{id: "provider"}); err != nil || id != "provider" {
		t.Fatalf("resolveActorID(provider) = %q, %v", id, err)
	}
	withActor := WithActor(ctx, Actor{ID: "header"})
	if id, _ := resolveActorID(withActor, stubActors{id: "provider"}); id != "header" {
		t.Fatalf("resolveActorID(context) = %q, want header", id)
	}
	boom := errors.New("boom")
	if _, err := resolveActorID(ctx, stubActors{err: boom}); !errors.Is(err, boom) {
		t.Fatalf("expected provider error, got %v", err)
	}
}
