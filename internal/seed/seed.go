package seed

import (
	"context"
	"fmt"

	"storefront/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, category domain.Category) (*domain.Category, error)
}

// demoCategory names its parent by slug; parents are listed before children.
type demoCategory struct {
	domain.Category
	Parent string
}

var DemoCategories = []demoCategory{
	{Category: domain.Category{Slug: "tea", Name: "Tea", Description: "Loose leaf tea"}},
	{Category: domain.Category{Slug: "green-tea", Name: "Green Tea"}, Parent: "tea"},
	{Category: domain.Category{Slug: "teaware", Name: "Teaware", Description: "Pots and cups"}},
	{Category: domain.Category{Slug: "gift-sets", Name: "Gift Sets", Status: domain.CategoryInactive}},
}

// productCategories maps demo SKUs to category slugs.
var productCategories = map[string]string{
	"TEA-SEN-100":     "green-tea",
	"TEA-OOLONG-200":  "tea",
	"POT-BAT-TRANG":   "teaware",
	"CUP-SET-6":       "teaware",
	"TEA-JASMINE-OLD": "tea",
}

// Result counts the rows written by Apply.
type Result struct {
	Categories int
	Products   int
}

// DemoProducts is the catalog used for manual testing. Amounts are in VND.
var DemoProducts = []domain.Product{
	{
		SKU:         "TEA-SEN-100",
		Name:        "Lotus Green Tea 100g",
		Description: "West Lake lotus-scented green tea",
		Price:       180000,
		Discount:    30000,
		Stock:       25,
		Status:      domain.ProductActive,
		Images:      []string{"/images/lotus-tea.jpg"},
	},
	{
		SKU:         "TEA-OOLONG-200",
		Name:        "Oolong Tea 200g",
		Description: "Highland oolong from Lam Dong",
		Price:       320000,
		Stock:       10,
		Status:      domain.ProductActive,
		Images:      []string{"/images/oolong.jpg"},
	},
	{
		SKU:         "POT-BAT-TRANG",
		Name:        "Bat Trang Teapot",
		Description: "Hand-glazed ceramic teapot",
		Price:       450000,
		Stock:       3,
		Status:      domain.ProductActive,
		Images:      []string{"/images/teapot-1.jpg", "/images/teapot-2.jpg"},
	},
	{
		SKU:    "CUP-SET-6",
		Name:   "Tea Cup Set (6)",
		Price:  150000,
		Stock:  0,
		Status: domain.ProductActive,
	},
	{
		SKU:    "TEA-JASMINE-OLD",
		Name:   "Jasmine Tea (old packaging)",
		Price:  90000,
		Stock:  8,
		Status: domain.ProductDiscontinued,
	},
}

// Apply upserts the demo categories and then the demo catalog. It is idempotent;
// stock is reset on every run.
func Apply(ctx context.Context, categories CategoryWriter, products ProductWriter) (Result, error) {
	var res Result
	ids := make(map[string]int64, len(DemoCategories))
	for _, dc := range DemoCategories {
		c := dc.Category
		if dc.Parent != "" {
			parentID, ok := ids[dc.Parent]
			if !ok {
				return res, fmt.Errorf("category %s: parent %s not seeded", c.Slug, dc.Parent)
			}
			c.ParentID = &parentID
		}
		saved, err := categories.Upsert(ctx, c)
		if err != nil {
			return res, fmt.Errorf("upsert category %s: %w", c.Slug, err)
		}
		ids[c.Slug] = saved.ID
		res.Categories++
	}

	for _, p := range DemoProducts {
		if slug, ok := productCategories[p.SKU]; ok {
			if id, ok := ids[slug]; ok {
				p.CategoryID = &id
			}
		}
		if _, err := products.Upsert(ctx, p); err != nil {
			return res, fmt.Errorf("upsert product %s: %w", p.SKU, err)
		}
		res.Products++
	}
	return res, nil
}
