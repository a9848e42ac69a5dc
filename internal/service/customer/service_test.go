package customer

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/domain"
	tokenrepo "storefront/internal/repository/token"
)

// memoryRepo is a lightweight in-memory customer repository for tests.
type memoryRepo struct {
	byEmail map[string]domain.Customer
}

type memoryTokenRepo struct {
	tokens map[string]tokenrepo.Token
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byEmail: make(map[string]domain.Customer)}
}

func newMemoryTokenRepo() *memoryTokenRepo {
	return &memoryTokenRepo{tokens: make(map[string]tokenrepo.Token)}
}

func (r *memoryTokenRepo) Create(_ context.Context, token tokenrepo.Token) error {
	if _, exists := r.tokens[token.Token]; exists {
		return domain.ErrAlreadyExists
	}
	r.tokens[token.Token] = token
	return nil
}

func (r *memoryTokenRepo) Get(_ context.Context, token string) (*tokenrepo.Token, error) {
	t, ok := r.tokens[token]
	if !ok {
		return nil, domain.ErrNotFound
	}
	clone := t
	return &clone, nil
}

func (r *memoryTokenRepo) Delete(_ context.Context, token string) error {
	if _, ok := r.tokens[token]; !ok {
		return domain.ErrNotFound
	}
	delete(r.tokens, token)
	return nil
}

func (r *memoryTokenRepo) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for k, t := range r.tokens {
		if !now.Before(t.ExpiresAt) {
			delete(r.tokens, k)
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) Create(_ context.Context, c domain.Customer) (*domain.Customer, error) {
	if _, exists := r.byEmail[c.Email]; exists {
		return nil, domain.ErrAlreadyExists
	}
	clone := c
	if clone.ID == "" {
		clone.ID = "cust-" + c.Email
	}
	r.byEmail[clone.Email] = clone
	return &clone, nil
}

func (r *memoryRepo) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	if c, ok := r.byEmail[email]; ok {
		clone := c
		return &clone, nil
	}
	return nil, domain.ErrNotFound
}

func (r *memoryRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	for _, c := range r.byEmail {
		if c.ID == id {
			clone := c
			return &clone, nil
		}
	}
	return nil, domain.ErrNotFound
}

func TestSignupAndLogin_SucceedsWithTrimmedPassword(t *testing.T) {
	repo := newMemoryRepo()
	svc := New(repo, newMemoryTokenRepo(), nil)

	ctx := context.Background()
	rawPassword := " Abcdefg1 " // includes whitespace

	customer, err := svc.Signup(ctx, SignupInput{
		Email:    "User@Example.com",
		Password: rawPassword,
		City:     "Hanoi",
	})
	if err != nil {
		t.Fatalf("signup returned error: %v", err)
	}
	if customer == nil || customer.Email != "user@example.com" || customer.Username != "user" {
		t.Fatalf("unexpected customer %+v", customer)
	}

	sess, err := svc.Login(ctx, "user@example.com", "Abcdefg1")
	if err != nil {
		t.Fatalf("login failed with trimmed password: %v", err)
	}
	if sess.AccessToken == "" || sess.RefreshToken == "" || sess.AccessToken == sess.RefreshToken {
		t.Fatalf("unexpected tokens %+v", sess)
	}
}

func TestSignup_RejectsBadInput(t *testing.T) {
	svc := New(newMemoryRepo(), newMemoryTokenRepo(), nil)
	ctx := context.Background()

	cases := []SignupInput{
		{Email: "", Password: "Abcdefg1"},
		{Email: "not-an-email", Password: "Abcdefg1"},
		{Email: "Name <a@b.com>", Password: "Abcdefg1"},
		{Email: "a@b.com", Password: "weak"},
	}
	for _, in := range cases {
		if _, err := svc.Signup(ctx, in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", in, err)
		}
	}
}

func TestSignup_DuplicateEmail(t *testing.T) {
	svc := New(newMemoryRepo(), newMemoryTokenRepo(), nil)
	ctx := context.Background()
	in := SignupInput{Email: "a@b.com", Password: "Abcdefg1"}

	if _, err := svc.Signup(ctx, in); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if _, err := svc.Signup(ctx, in); !errors.Is(err, domain.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}
}

func TestValidatePassword_FailsOnWeakValues(t *testing.T) {
	cases := []struct {
		name string
		pass string
	}{
		{"too short", "Abc1"},
		{"no upper", "abcdefg1"},
		{"no lower", "ABCDEFG1"},
		{"no digit", "Abcdefgh"},
	}
	for _, tc := range cases {
		if err := validatePassword(tc.pass, 8); err == nil {
			t.Fatalf("expected error for case %s", tc.name)
		}
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	repo := newMemoryRepo()
	svc := New(repo, newMemoryTokenRepo(), nil)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{
		Email:    "user@example.com",
		Password: "Abcdefg1",
	}); err != nil {
		t.Fatalf("signup: %v", err)
	}

	if _, err := svc.Login(ctx, "user@example.com", "wrongpass"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "missing@example.com", "Abcdefg1"); err != ErrInvalidCredentials {
		t.Fatalf("expected ErrInvalidCredentials for missing user, got %v", err)
	}
}

func TestLookupAndLogout(t *testing.T) {
	tokens := newMemoryTokenRepo()
	svc := New(newMemoryRepo(), tokens, nil)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Email: "user@example.com", Password: "Abcdefg1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	sess, err := svc.Login(ctx, "user@example.com", "Abcdefg1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	c, err := svc.LookupByToken(ctx, sess.AccessToken)
	if err != nil || c.Email != "user@example.com" {
		t.Fatalf("lookup: %+v %v", c, err)
	}
	if _, err := svc.LookupByToken(ctx, sess.RefreshToken); err != ErrInvalidToken {
		t.Fatalf("refresh token must not authenticate, got %v", err)
	}

	if err := svc.Logout(ctx, sess.AccessToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := svc.LookupByToken(ctx, sess.AccessToken); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken after logout, got %v", err)
	}
	if err := svc.Logout(ctx, sess.AccessToken); err != nil {
		t.Fatalf("second logout should be a no-op, got %v", err)
	}
}

func TestLookup_ExpiredTokenIsDeleted(t *testing.T) {
	tokens := newMemoryTokenRepo()
	svc := New(newMemoryRepo(), tokens, nil)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Email: "user@example.com", Password: "Abcdefg1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	sess, err := svc.Login(ctx, "user@example.com", "Abcdefg1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	svc.tokens.now = func() time.Time { return time.Now().Add(49 * time.Hour) }
	if _, err := svc.LookupByToken(ctx, sess.AccessToken); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
	if _, ok := tokens.tokens[sess.AccessToken]; ok {
		t.Fatalf("expired token should be deleted")
	}
}

func TestRefresh_RotatesTokens(t *testing.T) {
	tokens := newMemoryTokenRepo()
	svc := New(newMemoryRepo(), tokens, nil)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupInput{Email: "user@example.com", Password: "Abcdefg1"}); err != nil {
		t.Fatalf("signup: %v", err)
	}
	sess, err := svc.Login(ctx, "user@example.com", "Abcdefg1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	next, err := svc.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if next.AccessToken == sess.AccessToken || next.RefreshToken == sess.RefreshToken {
		t.Fatalf("expected new tokens")
	}
	if _, err := svc.Refresh(ctx, sess.RefreshToken); err != ErrInvalidToken {
		t.Fatalf("old refresh token must be revoked, got %v", err)
	}
	if _, err := svc.Refresh(ctx, next.AccessToken); err != ErrInvalidToken {
		t.Fatalf("access token must not refresh, got %v", err)
	}
}
