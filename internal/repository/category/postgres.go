package category

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger.Named("category_repo")}
}

const selectColumns = `id, slug, name, COALESCE(description, ''), parent_id, status, COALESCE(image_url, ''), created_at`

func (r *postgresRepo) List(ctx context.Context, status domain.CategoryStatus) ([]domain.Category, error) {
	q := `SELECT ` + selectColumns + `
FROM categories
WHERE ($1 = '' OR status = $1)
ORDER BY name ASC, id ASC`
	return r.query(ctx, q, string(status))
}

func (r *postgresRepo) ListChildren(ctx context.Context, parentID int64, status domain.CategoryStatus) ([]domain.Category, error) {
	q := `SELECT ` + selectColumns + `
FROM categories
WHERE parent_id = $1 AND ($2 = '' OR status = $2)
ORDER BY name ASC, id ASC`
	return r.query(ctx, q, parentID, string(status))
}

func (r *postgresRepo) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	q := `SELECT ` + selectColumns + ` FROM categories WHERE slug = $1`
	c, err := scanCategory(r.pool.QueryRow(ctx, q, strings.ToLower(slug)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		r.logger.Error("get by slug failed", zap.String("slug", slug), zap.Error(err))
		return nil, err
	}
	return c, nil
}

// Upsert inserts or updates by slug. Empty optional fields keep their stored values.
func (r *postgresRepo) Upsert(ctx context.Context, c domain.Category) (*domain.Category, error) {
	if c.Status == "" {
		c.Status = domain.CategoryActive
	}
	q := `
INSERT INTO categories (slug, name, description, parent_id, status, image_url)
VALUES ($1, $2, NULLIF($3, ''), $4, $5, NULLIF($6, ''))
ON CONFLICT (slug) DO UPDATE
SET name = EXCLUDED.name,
    description = COALESCE(EXCLUDED.description, categories.description),
    parent_id = EXCLUDED.parent_id,
    status = EXCLUDED.status,
    image_url = COALESCE(EXCLUDED.image_url, categories.image_url)
RETURNING ` + selectColumns
	out, err := scanCategory(r.pool.QueryRow(ctx, q,
		strings.ToLower(c.Slug),
		c.Name,
		c.Description,
		c.ParentID,
		string(c.Status),
		c.ImageURL,
	))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && (pgErr.Code == "23503" || pgErr.Code == "23514") {
			return nil, domain.ErrInvalidState
		}
		r.logger.Error("upsert failed", zap.String("slug", c.Slug), zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (r *postgresRepo) query(ctx context.Context, q string, args ...any) ([]domain.Category, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.Error("list failed", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	result := []domain.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var (
		c      domain.Category
		status string
	)
	if err := row.Scan(&c.ID, &c.Slug, &c.Name, &c.Description, &c.ParentID, &status, &c.ImageURL, &c.CreatedAt); err != nil {
		return nil, err
	}
	c.Status = domain.CategoryStatus(status)
	return &c, nil
}
