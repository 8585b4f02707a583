package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/ports"
)

// DealStore persists deals in Postgres keyed by their dedup key.
type DealStore struct {
	db *sql.DB
}

var _ ports.DealStore = (*DealStore)(nil)

// NewDealStore wires a sql.DB implementation.
func NewDealStore(db *sql.DB) *DealStore {
	return &DealStore{db: db}
}

const dealColumns = `id, product_id, dedup_key, current_price_cents, old_price_cents,
	discount_percent, currency, starts_at, expires_at, status, suppressed, approved,
	created_at, updated_at`

// UpsertByDedupKey creates the deal on first sighting of its
// product/price identity and refreshes price-derived fields and
// status on every later one. The manual suppressed/approved flags are never
// overwritten on refresh: a re-sent offer must not undo an operator
// decision.
func (s *DealStore) UpsertByDedupKey(ctx context.Context, d domain.Deal) (domain.Deal, error) {
	query := `INSERT INTO deals (product_id, dedup_key, current_price_cents, old_price_cents,
			discount_percent, currency, starts_at, expires_at, status, approved)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (dedup_key) DO UPDATE
		SET current_price_cents = EXCLUDED.current_price_cents,
			old_price_cents = EXCLUDED.old_price_cents,
			discount_percent = EXCLUDED.discount_percent,
			currency = EXCLUDED.currency,
			starts_at = EXCLUDED.starts_at,
			expires_at = EXCLUDED.expires_at,
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING ` + dealColumns

	row := s.db.QueryRowContext(ctx, query,
		d.ProductID, d.DedupKey, d.CurrentPriceCents, nullInt64(d.OldPriceCents),
		nullInt(d.DiscountPercent), d.Currency, nullTime(d.StartsAt), d.ExpiresAt,
		string(d.Status), d.Approved)
	return scanDeal(row)
}

// ListLive returns deals still in a non-expired status, oldest expiry first,
// so the sweep advances the most urgent deals before the batch limit cuts.
func (s *DealStore) ListLive(ctx context.Context, now time.Time, limit int) ([]domain.Deal, error) {
	query, args, err := builder.
		Select(dealColumns).
		From("deals").
		Where(sq.NotEq{"status": string(domain.StatusExpired)}).
		OrderBy("expires_at ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list live deals: %w", err)
	}
	defer rows.Close()

	var deals []domain.Deal
	for rows.Next() {
		d, err := scanDealRows(rows)
		if err != nil {
			return nil, err
		}
		deals = append(deals, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return deals, nil
}

// UpdateStatus advances one deal to the given lifecycle tier.
func (s *DealStore) UpdateStatus(ctx context.Context, dealID int64, status domain.DealStatus) error {
	query, args, err := builder.
		Update("deals").
		Set("status", string(status)).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": dealID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("update deal status: %w", err)
	}
	return nil
}

func scanDeal(row *sql.Row) (domain.Deal, error) {
	return scanDealRows(row)
}

func scanDealRows(row rowScanner) (domain.Deal, error) {
	var (
		d        domain.Deal
		oldPrice sql.NullInt64
		discount sql.NullInt64
		startsAt sql.NullTime
		status   string
	)
	err := row.Scan(&d.ID, &d.ProductID, &d.DedupKey, &d.CurrentPriceCents, &oldPrice,
		&discount, &d.Currency, &startsAt, &d.ExpiresAt, &status, &d.Suppressed,
		&d.Approved, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return domain.Deal{}, fmt.Errorf("scan deal: %w", err)
	}
	d.Status = domain.DealStatus(status)
	if oldPrice.Valid {
		v := oldPrice.Int64
		d.OldPriceCents = &v
	}
	if discount.Valid {
		v := int(discount.Int64)
		d.DiscountPercent = &v
	}
	if startsAt.Valid {
		t := startsAt.Time
		d.StartsAt = &t
	}
	return d, nil
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullTime(v *time.Time) any {
	if v == nil {
		return nil
	}
	return *v
}
