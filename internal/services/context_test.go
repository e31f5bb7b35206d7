package services_test

import (
	"context"
	"testing"

	"reelfetch/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithRequestID(ctx, "req-123")
	ctx = services.WithUserID(ctx, "42")
	ctx = services.WithCommand(ctx, "youtube")

	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
	if uid, ok := services.UserIDFromContext(ctx); !ok || uid != "42" {
		t.Fatalf("unexpected user id: %v %v", uid, ok)
	}
	if cmd, ok := services.CommandFromContext(ctx); !ok || cmd != "youtube" {
		t.Fatalf("unexpected command: %v %v", cmd, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithUserID(ctx, "")
	ctx = services.WithCommand(ctx, "")
	if _, ok := services.UserIDFromContext(ctx); ok {
		t.Fatal("expected no user value")
	}
	if _, ok := services.CommandFromContext(ctx); ok {
		t.Fatal("expected no command value")
	}
}
