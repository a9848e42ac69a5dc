package category

import (
	"context"

	"storefront/internal/domain"
	categoryrepo "storefront/internal/repository/category"
	productrepo "storefront/internal/repository/product"
)

// detailProductLimit caps the products returned with a category page.
const detailProductLimit = 100

type productLister interface {
	List(ctx context.Context, f productrepo.ListFilter) ([]domain.Product, error)
}

type Service struct {
	repo     categoryrepo.Repository
	products productLister
}

func New(repo categoryrepo.Repository, products productLister) *Service {
	return &Service{repo: repo, products: products}
}

// Detail is a category page: the category itself, its active sub-categories and
// its active products.
type Detail struct {
	Category      domain.Category   `json:"category"`
	Subcategories []domain.Category `json:"subcategories"`
	Products      []domain.Product  `json:"products"`
}

// List returns active categories only.
func (s *Service) List(ctx context.Context) ([]domain.Category, error) {
	return s.repo.List(ctx, domain.CategoryActive)
}

// Detail resolves an active category by slug. Inactive categories read as not found.
func (s *Service) Detail(ctx context.Context, slug string) (*Detail, error) {
	c, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if c.Status != domain.CategoryActive {
		return nil, domain.ErrNotFound
	}
	children, err := s.repo.ListChildren(ctx, c.ID, domain.CategoryActive)
	if err != nil {
		return nil, err
	}
	products, err := s.products.List(ctx, productrepo.ListFilter{
		Status:     domain.ProductActive,
		CategoryID: c.ID,
		Limit:      detailProductLimit,
	})
	if err != nil {
		return nil, err
	}
	return &Detail{Category: *c, Subcategories: children, Products: products}, nil
}

func (s *Service) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	return s.repo.Upsert(ctx, c)
}
