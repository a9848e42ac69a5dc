package product

import (
	"context"

	"storefront/internal/domain"
)

// ListFilter narrows a catalog listing. Zero values mean no restriction.
type ListFilter struct {
	Query      string
	Status     domain.ProductStatus
	CategoryID int64
	Limit      int
	Offset     int
}

type Repository interface {
	List(ctx context.Context, f ListFilter) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	Upsert(ctx context.Context, p domain.Product) (*domain.Product, error)
}
