package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/doit-inc/doit-engine/pkg/models"
)

func TestUserContextRoundTrip(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "user@doit.app"}
	ctx := WithUser(context.Background(), user)

	got, ok := GetUser(ctx)
	if !ok || got.ID != user.ID {
		t.Fatalf("expected user from context, got %v %v", got, ok)
	}

	required, err := RequireUser(ctx)
	if err != nil || required.ID != user.ID {
		t.Fatalf("RequireUser failed: %v", err)
	}
}

func TestRequireUser_MissingUser(t *testing.T) {
	if _, err := RequireUser(context.Background()); err == nil {
		t.Fatal("expected error for unauthenticated context")
	}
}
