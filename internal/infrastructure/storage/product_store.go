package storage

import (
	"context"
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/ports"
)

// ProductStore persists canonical products in Postgres.
type ProductStore struct {
	db *sql.DB
}

var _ ports.ProductStore = (*ProductStore)(nil)

// NewProductStore wires a sql.DB implementation.
func NewProductStore(db *sql.DB) *ProductStore {
	return &ProductStore{db: db}
}

const productColumns = `id, external_id, title, image_url, category, category_override,
	product_url, tags, blocked, source_fetched_at, created_at, updated_at`

// UpsertByExternalID creates the product on first sighting and updates the
// mutable scalar fields on every later one. Tags are deliberately absent
// from the conflict update: the site router is their only writer.
func (s *ProductStore) UpsertByExternalID(ctx context.Context, p domain.IngestedProduct) (domain.Product, error) {
	query := `INSERT INTO products (external_id, title, image_url, category, product_url, source_fetched_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (external_id) DO UPDATE
		SET title = EXCLUDED.title,
			image_url = EXCLUDED.image_url,
			category = EXCLUDED.category,
			product_url = EXCLUDED.product_url,
			source_fetched_at = EXCLUDED.source_fetched_at,
			updated_at = NOW()
		RETURNING ` + productColumns

	row := s.db.QueryRowContext(ctx, query,
		p.ExternalID, p.Title, p.ImageURL, p.Category, p.ProductURL, p.FetchedAt)
	return scanProduct(row)
}

// GetByExternalID loads one product by its provider-scoped id.
func (s *ProductStore) GetByExternalID(ctx context.Context, externalID string) (domain.Product, error) {
	query, args, err := builder.
		Select(productColumns).
		From("products").
		Where(sq.Eq{"external_id": externalID}).
		ToSql()
	if err != nil {
		return domain.Product{}, fmt.Errorf("build query: %w", err)
	}
	return scanProduct(s.db.QueryRowContext(ctx, query, args...))
}

// GetByID loads one product by its internal id.
func (s *ProductStore) GetByID(ctx context.Context, productID int64) (domain.Product, error) {
	query, args, err := builder.
		Select(productColumns).
		From("products").
		Where(sq.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return domain.Product{}, fmt.Errorf("build query: %w", err)
	}
	return scanProduct(s.db.QueryRowContext(ctx, query, args...))
}

// ListBatch pages the catalog by id so the router never runs an unbounded
// table scan.
func (s *ProductStore) ListBatch(ctx context.Context, afterID int64, limit int) ([]domain.Product, error) {
	query, args, err := builder.
		Select(productColumns).
		From("products").
		Where(sq.Gt{"id": afterID}).
		OrderBy("id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProductRows(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return products, nil
}

// UpdateTags replaces the full tag set of one product. Only the site router
// calls this, with a set it recomputed wholesale.
func (s *ProductStore) UpdateTags(ctx context.Context, productID int64, tags []string) error {
	query, args, err := builder.
		Update("products").
		Set("tags", pq.StringArray(tags)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": productID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update tags: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row *sql.Row) (domain.Product, error) {
	return scanProductRows(row)
}

func scanProductRows(row rowScanner) (domain.Product, error) {
	var (
		p       domain.Product
		tags    pq.StringArray
		fetched sql.NullTime
	)
	err := row.Scan(&p.ID, &p.ExternalID, &p.Title, &p.ImageURL, &p.Category,
		&p.CategoryOverride, &p.ProductURL, &tags, &p.Blocked, &fetched,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return domain.Product{}, fmt.Errorf("scan product: %w", err)
	}
	p.Tags = []string(tags)
	if fetched.Valid {
		p.SourceFetchedAt = fetched.Time
	}
	return p, nil
}
