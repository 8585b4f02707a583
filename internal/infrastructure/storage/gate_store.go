package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/ports"
)

// GateStore reads per-site automation gates from Postgres.
type GateStore struct {
	db *sql.DB
}

var _ ports.GateStore = (*GateStore)(nil)

// NewGateStore wires a sql.DB implementation.
func NewGateStore(db *sql.DB) *GateStore {
	return &GateStore{db: db}
}

// Get returns the gate row for a site. A missing row comes back as a gate
// with every capability disabled, never as an error: the gate fails closed.
func (s *GateStore) Get(ctx context.Context, siteKey string) (domain.AutomationGate, error) {
	query, args, err := builder.
		Select("site_key", "ingestion_enabled", "auto_publish_enabled", "unaffiliated_auto_publish_enabled").
		From("automation_gates").
		Where(sq.Eq{"site_key": siteKey}).
		ToSql()
	if err != nil {
		return domain.AutomationGate{}, fmt.Errorf("build query: %w", err)
	}

	var gate domain.AutomationGate
	err = s.db.QueryRowContext(ctx, query, args...).Scan(
		&gate.SiteKey, &gate.IngestionEnabled, &gate.AutoPublishEnabled,
		&gate.UnaffiliatedAutoPublishEnabled)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.AutomationGate{SiteKey: siteKey}, nil
	}
	if err != nil {
		return domain.AutomationGate{}, fmt.Errorf("read gate: %w", err)
	}
	return gate, nil
}
