package order

import (
	"context"

	"storefront/internal/domain"
)

// Repository stores orders. Create is the authoritative stock check: it fails with
// *domain.StockRejectedError when live stock no longer covers an item.
type Repository interface {
	Create(ctx context.Context, o domain.Order) (*domain.Order, error)
	// ListByCustomer returns the customer's orders, newest first. An empty status
	// lists every status.
	ListByCustomer(ctx context.Context, customerID string, status domain.OrderStatus) ([]domain.Order, error)
	GetForCustomer(ctx context.Context, customerID, id string) (*domain.Order, error)
	Cancel(ctx context.Context, customerID, id string) (*domain.Order, error)
}
