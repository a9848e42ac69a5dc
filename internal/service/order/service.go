package order

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/domain"
	orderrepo "storefront/internal/repository/order"
)

var ErrInvalidStatus = errors.New("invalid order status")

// Service exposes a customer's order history.
type Service struct {
	repo orderrepo.Repository
}

func New(repo orderrepo.Repository) *Service {
	return &Service{repo: repo}
}

// History lists the customer's orders. A non-empty status narrows the list to
// orders in that status.
func (s *Service) History(ctx context.Context, customerID string, status domain.OrderStatus) ([]domain.Order, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	return s.repo.ListByCustomer(ctx, customerID, status)
}

func (s *Service) Get(ctx context.Context, customerID, id string) (*domain.Order, error) {
	return s.repo.GetForCustomer(ctx, customerID, id)
}

// Cancel cancels a pending order. Orders past pending fail with domain.ErrInvalidState.
func (s *Service) Cancel(ctx context.Context, customerID, id string) (*domain.Order, error) {
	return s.repo.Cancel(ctx, customerID, id)
}
