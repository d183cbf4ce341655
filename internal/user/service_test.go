package user

import (
	"context"
	"errors"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestRegister(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	u, err := svc.Register(ctx, RegisterInput{Username: "alice", Phone: "07701234567", PIN: "4321"})
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if u.ID == "" {
		t.Fatalf("expected an id")
	}
	if err := bcrypt.CompareHashAndPassword(u.PINHash, []byte("4321")); err != nil {
		t.Fatalf("PIN hash does not verify: %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Username: "", PIN: "4321"}); err == nil {
		t.Fatalf("expected missing username to be rejected")
	}
	if _, err := svc.Register(ctx, RegisterInput{Username: "alice", PIN: "123"}); err == nil {
		t.Fatalf("expected short PIN to be rejected")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterInput{Username: "alice", PIN: "4321"}); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, err := svc.Register(ctx, RegisterInput{Username: "alice", PIN: "9876"}); err == nil {
		t.Fatalf("expected duplicate username to be rejected")
	}
}

func TestFindByPhoneAnyPrecedence(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	domestic := User{ID: "u1", Username: "domestic", Phone: "07701234567"}
	intl := User{ID: "u2", Username: "intl", Phone: "+9647701234567"}
	for _, u := range []User{domestic, intl} {
		if err := repo.Create(ctx, u); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	got, err := repo.FindByPhoneAny(ctx, []string{"07701234567", "+9647701234567"})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.ID != domestic.ID {
		t.Fatalf("expected the first candidate form to win, got %s", got.Username)
	}

	got, err = repo.FindByPhoneAny(ctx, []string{"07709999999", "+9647701234567"})
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if got.ID != intl.ID {
		t.Fatalf("expected fallback to the second form, got %s", got.Username)
	}

	if _, err := repo.FindByPhoneAny(ctx, []string{"07000000000"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
