package token

import (
	"context"
	"time"
)

const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

type Token struct {
	Token      string
	CustomerID string
	Kind       string
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

type Repository interface {
	Create(ctx context.Context, token Token) error
	Get(ctx context.Context, token string) (*Token, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
