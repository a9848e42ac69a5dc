package catalog

import (
	"context"

	"storefront/internal/cart"
	"storefront/internal/domain"
	productrepo "storefront/internal/repository/product"
)

type Service struct {
	repo productrepo.Repository
}

func New(repo productrepo.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, f productrepo.ListFilter) ([]domain.Product, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// Snapshot reads the product and captures it in the form the cart stores.
func (s *Service) Snapshot(ctx context.Context, id int64) (cart.ProductSnapshot, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return cart.ProductSnapshot{}, err
	}
	return SnapshotOf(*p), nil
}

// SnapshotOf converts a catalog product into a cart snapshot. Price is the list
// price and becomes the line's unit price; Discount is copied for display and is
// never subtracted by the cart. Discontinued products are captured with no stock.
func SnapshotOf(p domain.Product) cart.ProductSnapshot {
	stock := p.Stock
	status := cart.StatusActive
	if p.Status == domain.ProductDiscontinued {
		status = cart.StatusDiscontinued
		stock = 0
	}
	if stock < 0 {
		stock = 0
	}
	var images []string
	if len(p.Images) > 0 {
		images = append([]string(nil), p.Images...)
	}
	return cart.ProductSnapshot{
		ID:       p.ID,
		Name:     p.Name,
		Price:    p.Price,
		Discount: p.Discount,
		Quantity: stock,
		Status:   status,
		Images:   images,
	}
}
