package category

import (
	"context"
	"errors"
	"os"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/migrate"
	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPostgres_UpsertAndList(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	tea, err := repo.Upsert(ctx, domain.Category{Slug: "tea", Name: "Tea"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if tea.ID == 0 || tea.Status != domain.CategoryActive || tea.ParentID != nil {
		t.Fatalf("unexpected category %+v", tea)
	}
	if _, err := repo.Upsert(ctx, domain.Category{Slug: "green-tea", Name: "Green Tea", ParentID: &tea.ID}); err != nil {
		t.Fatalf("upsert child: %v", err)
	}
	if _, err := repo.Upsert(ctx, domain.Category{Slug: "black-tea", Name: "Black Tea", ParentID: &tea.ID, Status: domain.CategoryInactive}); err != nil {
		t.Fatalf("upsert inactive child: %v", err)
	}

	all, err := repo.List(ctx, "")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 categories, got %+v", all)
	}
	active, err := repo.List(ctx, domain.CategoryActive)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 2 || active[0].Slug != "green-tea" || active[1].Slug != "tea" {
		t.Fatalf("unexpected active list %+v", active)
	}

	children, err := repo.ListChildren(ctx, tea.ID, domain.CategoryActive)
	if err != nil {
		t.Fatalf("list children: %v", err)
	}
	if len(children) != 1 || children[0].Slug != "green-tea" || *children[0].ParentID != tea.ID {
		t.Fatalf("unexpected children %+v", children)
	}
}

func TestPostgres_UpsertUpdatesExisting(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	repo := NewPostgres(pool, nil)
	first, err := repo.Upsert(ctx, domain.Category{Slug: "Teaware", Name: "Teaware", Description: "pots and cups"})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	second, err := repo.Upsert(ctx, domain.Category{Slug: "teaware", Name: "Teaware & Cups", Status: domain.CategoryInactive})
	if err != nil {
		t.Fatalf("upsert update: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected same ID after update")
	}
	if second.Name != "Teaware & Cups" || second.Description != "pots and cups" || second.Status != domain.CategoryInactive {
		t.Fatalf("unexpected updated category %+v", second)
	}

	got, err := repo.GetBySlug(ctx, "TEAWARE")
	if err != nil || got.ID != first.ID {
		t.Fatalf("get by slug: %+v %v", got, err)
	}
	if _, err := repo.GetBySlug(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_UpsertUnknownParent(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	resetTables(ctx, t, pool)

	missing := int64(9999)
	_, err := NewPostgres(pool, nil).Upsert(ctx, domain.Category{Slug: "orphan", Name: "Orphan", ParentID: &missing})
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState for unknown parent, got %v", err)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	return pool
}

func resetTables(ctx context.Context, t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	if _, err := pool.Exec(ctx, `TRUNCATE categories RESTART IDENTITY CASCADE`); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}
