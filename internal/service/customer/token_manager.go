package customer

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"time"

	"storefront/internal/domain"
	tokenrepo "storefront/internal/repository/token"
)

type tokenMeta struct {
	CustomerID string
	ExpiresAt  time.Time
}

type tokenManager struct {
	repo tokenrepo.Repository
	now  func() time.Time
}

func newTokenManager(repo tokenrepo.Repository) *tokenManager {
	return &tokenManager{repo: repo, now: time.Now}
}

func (m *tokenManager) Issue(ctx context.Context, customerID, kind string, ttl time.Duration) (string, error) {
	expiresAt := m.now().Add(ttl)
	for i := 0; i < 5; i++ {
		token, err := randomToken()
		if err != nil {
			return "", err
		}
		err = m.repo.Create(ctx, tokenrepo.Token{
			Token:      token,
			CustomerID: customerID,
			Kind:       kind,
			ExpiresAt:  expiresAt,
		})
		if err == nil {
			return token, nil
		}
		if errors.Is(err, domain.ErrAlreadyExists) {
			continue
		}
		return "", err
	}
	return "", errors.New("token collision")
}

// Validate accepts only unexpired tokens of the given kind. Expired tokens are deleted.
func (m *tokenManager) Validate(ctx context.Context, token, kind string) (tokenMeta, bool) {
	if token == "" {
		return tokenMeta{}, false
	}
	meta, err := m.repo.Get(ctx, token)
	if err != nil {
		return tokenMeta{}, false
	}
	if meta.Kind != kind || meta.CustomerID == "" {
		return tokenMeta{}, false
	}
	if m.now().After(meta.ExpiresAt) {
		_ = m.repo.Delete(ctx, token)
		return tokenMeta{}, false
	}
	return tokenMeta{CustomerID: meta.CustomerID, ExpiresAt: meta.ExpiresAt}, true
}

func (m *tokenManager) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return domain.ErrNotFound
	}
	return m.repo.Delete(ctx, token)
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
