package category

import (
	"context"

	"storefront/internal/domain"
)

type Repository interface {
	// List returns categories ordered by name. An empty status lists every status.
	List(ctx context.Context, status domain.CategoryStatus) ([]domain.Category, error)
	GetBySlug(ctx context.Context, slug string) (*domain.Category, error)
	ListChildren(ctx context.Context, parentID int64, status domain.CategoryStatus) ([]domain.Category, error)
	Upsert(ctx context.Context, c domain.Category) (*domain.Category, error)
}
