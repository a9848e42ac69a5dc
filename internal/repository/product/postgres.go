package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const maxListLimit = 200

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("product_repo")}
}

const selectColumns = `id, sku, name, COALESCE(description, ''), price, discount, stock, status, images, category_id, created_at`

func (r *postgresRepo) List(ctx context.Context, f ListFilter) ([]domain.Product, error) {
	limit := f.Limit
	if limit <= 0 || limit > maxListLimit {
		limit = maxListLimit
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}
	q := `
SELECT ` + selectColumns + `
FROM products
WHERE ($1 = '' OR name ILIKE '%' || $1 || '%' OR sku ILIKE '%' || $1 || '%')
  AND ($2 = '' OR status = $2)
  AND ($3 = 0 OR category_id = $3)
ORDER BY created_at DESC, id DESC
LIMIT $4 OFFSET $5
`
	rows, err := r.pool.Query(ctx, q, f.Query, string(f.Status), f.CategoryID, limit, offset)
	if err != nil {
		r.logger.Error("list failed", zap.String("query", f.Query), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := []domain.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("list rows failed", zap.Error(err))
		return nil, err
	}
	r.logger.Debug("listed products", zap.String("query", f.Query), zap.Int("count", len(result)))
	return result, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	q := `SELECT ` + selectColumns + ` FROM products WHERE id = $1`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug("product not found", zap.Int64("id", id))
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get failed", zap.Int64("id", id), zap.Error(err))
		return nil, err
	}
	return p, nil
}

// Upsert inserts or updates by SKU. Stock is overwritten, not added to.
func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.Status == "" {
		p.Status = domain.ProductActive
	}
	images := p.Images
	if images == nil {
		images = []string{}
	}
	imagesJSON, err := json.Marshal(images)
	if err != nil {
		return nil, fmt.Errorf("encode images: %w", err)
	}

	const q = `
INSERT INTO products (sku, name, description, price, discount, stock, status, images, category_id)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6, $7, $8::jsonb, $9)
ON CONFLICT (sku) DO UPDATE SET
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    price = EXCLUDED.price,
    discount = EXCLUDED.discount,
    stock = EXCLUDED.stock,
    status = EXCLUDED.status,
    images = EXCLUDED.images,
    category_id = EXCLUDED.category_id
RETURNING id, created_at
`
	res := p
	res.Images = images
	err = r.pool.QueryRow(ctx, q,
		p.SKU,
		p.Name,
		p.Description,
		p.Price,
		p.Discount,
		p.Stock,
		string(p.Status),
		string(imagesJSON),
		p.CategoryID,
	).Scan(&res.ID, &res.CreatedAt)
	if err != nil {
		r.logger.Error("upsert failed", zap.String("sku", p.SKU), zap.Error(err))
		return nil, err
	}
	r.logger.Debug("upserted product", zap.String("sku", res.SKU), zap.Int64("id", res.ID))
	return &res, nil
}

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var (
		p          domain.Product
		status     string
		imagesJSON []byte
	)
	if err := row.Scan(&p.ID, &p.SKU, &p.Name, &p.Description, &p.Price, &p.Discount, &p.Stock, &status, &imagesJSON, &p.CategoryID, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Status = domain.ProductStatus(status)
	if len(imagesJSON) > 0 {
		if err := json.Unmarshal(imagesJSON, &p.Images); err != nil {
			return nil, fmt.Errorf("decode images for product %d: %w", p.ID, err)
		}
	}
	return &p, nil
}
