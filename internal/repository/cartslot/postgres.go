package cartslot

import (
	"context"
	"errors"

	"storefront/internal/cart"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresSlot struct {
	pool *pgxpool.Pool
}

// NewPostgres returns a slot stored in the cart_slots table.
func NewPostgres(pool *pgxpool.Pool) cart.Slot {
	return &postgresSlot{pool: pool}
}

func (r *postgresSlot) Get(ctx context.Context, key string) ([]byte, error) {
	var data []byte
	err := r.pool.QueryRow(ctx, `SELECT payload::text FROM cart_slots WHERE key = $1`, key).Scan(&data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrSlotEmpty
		}
		return nil, err
	}
	return data, nil
}

func (r *postgresSlot) Put(ctx context.Context, key string, data []byte) error {
	_, err := r.pool.Exec(ctx, `
INSERT INTO cart_slots (key, payload, updated_at)
VALUES ($1, $2::jsonb, now())
ON CONFLICT (key) DO UPDATE
SET payload = EXCLUDED.payload,
    updated_at = EXCLUDED.updated_at
`, key, string(data))
	return err
}

func (r *postgresSlot) Delete(ctx context.Context, key string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_slots WHERE key = $1`, key)
	return err
}
