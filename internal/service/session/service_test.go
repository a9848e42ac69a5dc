package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIssueAndValidate(t *testing.T) {
	svc := New(time.Hour, nil)
	ctx := context.Background()

	id, expires, err := svc.Issue(ctx)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if expires.Before(time.Now()) {
		t.Fatalf("expected future expiry")
	}
	got, err := svc.Validate(ctx, id)
	if err != nil || got != id {
		t.Fatalf("validate: %q %v", got, err)
	}
}

func TestValidate_RejectsMalformed(t *testing.T) {
	svc := New(time.Hour, nil)
	for _, id := range []string{"", "abc", "00000000-0000-1000-8000-000000000000"} {
		if _, err := svc.Validate(context.Background(), id); err != ErrInvalidSession {
			t.Fatalf("expected ErrInvalidSession for %q, got %v", id, err)
		}
	}
}

type cartSlots map[string][]byte

func (c cartSlots) Get(_ context.Context, key string) ([]byte, error) {
	data, ok := c[key]
	if !ok {
		return nil, errors.New("cart slot empty")
	}
	return data, nil
}

func TestValidate_AdoptsUnknownIDWithStoredCart(t *testing.T) {
	carts := cartSlots{}
	first := New(time.Hour, carts)
	id, _, err := first.Issue(context.Background())
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	carts[id] = []byte(`[]`)

	restarted := New(time.Hour, carts)
	if _, err := restarted.Validate(context.Background(), id); err != nil {
		t.Fatalf("expected adoption after restart, got %v", err)
	}
}

func TestValidate_RejectsUnknownIDWithoutCart(t *testing.T) {
	svc := New(time.Hour, cartSlots{})
	chosen := uuid.NewString()
	if _, err := svc.Validate(context.Background(), chosen); err != ErrInvalidSession {
		t.Fatalf("expected client-chosen id rejected, got %v", err)
	}
	if n := len(svc.sessions); n != 0 {
		t.Fatalf("rejected id must not be stored, table has %d", n)
	}

	if _, err := New(time.Hour, nil).Validate(context.Background(), chosen); err != ErrInvalidSession {
		t.Fatalf("expected rejection without a cart store, got %v", err)
	}
}

func TestValidate_RevokedIDNotAdoptedAfterSweep(t *testing.T) {
	carts := cartSlots{}
	svc := New(time.Hour, carts)
	ctx := context.Background()
	base := time.Now()
	svc.now = func() time.Time { return base }

	id, _, _ := svc.Issue(ctx)
	carts[id] = []byte(`[]`)
	svc.Revoke(ctx, id)
	delete(carts, id) // logout purges the cart

	svc.now = func() time.Time { return base.Add(2 * time.Hour) }
	if n := svc.Sweep(); n != 1 {
		t.Fatalf("expected revoked entry swept, got %d", n)
	}
	if _, err := svc.Validate(ctx, id); err != ErrInvalidSession {
		t.Fatalf("expected swept revoked id rejected, got %v", err)
	}
}

func TestValidate_ExpiredAndRevoked(t *testing.T) {
	svc := New(time.Hour, nil)
	ctx := context.Background()
	base := time.Now()
	svc.now = func() time.Time { return base }

	expired, _, _ := svc.Issue(ctx)
	revoked, _, _ := svc.Issue(ctx)
	svc.Revoke(ctx, revoked)
	if _, err := svc.Validate(ctx, revoked); err != ErrInvalidSession {
		t.Fatalf("expected revoked session rejected, got %v", err)
	}

	svc.now = func() time.Time { return base.Add(2 * time.Hour) }
	if _, err := svc.Validate(ctx, expired); err != ErrInvalidSession {
		t.Fatalf("expected expired session rejected, got %v", err)
	}

	if n := svc.Sweep(); n != 2 {
		t.Fatalf("expected 2 swept, got %d", n)
	}
}

func TestValidate_SlidesExpiry(t *testing.T) {
	svc := New(time.Hour, nil)
	ctx := context.Background()
	base := time.Now()
	svc.now = func() time.Time { return base }

	id, _, _ := svc.Issue(ctx)
	svc.now = func() time.Time { return base.Add(50 * time.Minute) }
	if _, err := svc.Validate(ctx, id); err != nil {
		t.Fatalf("validate: %v", err)
	}
	svc.now = func() time.Time { return base.Add(100 * time.Minute) }
	if _, err := svc.Validate(ctx, id); err != nil {
		t.Fatalf("expected sliding expiry to keep session alive, got %v", err)
	}
}
