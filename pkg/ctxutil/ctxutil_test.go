package ctxutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

func TestActorID_RoundTrip(t *testing.T) {
	t.Parallel()

	id := uuid.New()
	ctx := WithActorID(context.Background(), id)

	got := ActorIDFromCtx(ctx)
	if got == nil || *got != id {
		t.Fatalf("ActorIDFromCtx = %v, want %s", got, id)
	}
}

func TestActorID_Missing(t *testing.T) {
	t.Parallel()

	if got := ActorIDFromCtx(context.Background()); got != nil {
		t.Fatalf("expected nil for empty context, got %v", got)
	}
}

func TestActorID_NilUUID(t *testing.T) {
	t.Parallel()

	ctx := WithActorID(context.Background(), uuid.Nil)
	if got := ActorIDFromCtx(ctx); got != nil {
		t.Fatalf("expected nil for uuid.Nil, got %v", got)
	}
}

func TestRequestID_RoundTrip(t *testing.T) {
	t.Parallel()

	ctx := WithRequestID(context.Background(), "req-42")
	if got := RequestIDFromCtx(ctx); got != "req-42" {
		t.Fatalf("RequestIDFromCtx = %q, want %q", got, "req-42")
	}

	if got := RequestIDFromCtx(context.Background()); got != "" {
		t.Fatalf("expected empty request id, got %q", got)
	}
}
