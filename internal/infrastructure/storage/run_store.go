package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/ports"
)

// RunStore appends ingestion audit rows in Postgres. Rows are never
// deleted; a run is inserted STARTED and updated exactly once to its
// terminal status.
type RunStore struct {
	db *sql.DB
}

var _ ports.RunStore = (*RunStore)(nil)

// NewRunStore wires a sql.DB implementation.
func NewRunStore(db *sql.DB) *RunStore {
	return &RunStore{db: db}
}

// Open inserts the STARTED row and returns it with its assigned id.
func (s *RunStore) Open(ctx context.Context, run domain.IngestionRun) (domain.IngestionRun, error) {
	meta, err := marshalMetadata(run.Metadata)
	if err != nil {
		return domain.IngestionRun{}, err
	}

	query := `INSERT INTO ingestion_runs (source, site_key, status, started_at, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	if err := s.db.QueryRowContext(ctx, query,
		run.Source, run.SiteKey, string(run.Status), run.StartedAt, meta).Scan(&run.ID); err != nil {
		return domain.IngestionRun{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// Close writes the terminal status and counters for a previously opened run.
func (s *RunStore) Close(ctx context.Context, run domain.IngestionRun) error {
	meta, err := marshalMetadata(run.Metadata)
	if err != nil {
		return err
	}

	query := `UPDATE ingestion_runs
		SET status = $1, finished_at = $2, error = $3,
			products_processed = $4, deals_processed = $5,
			records_dropped = $6, unresolved_refs = $7, metadata = $8
		WHERE id = $9`

	if _, err := s.db.ExecContext(ctx, query,
		string(run.Status), run.FinishedAt, run.Error,
		run.ProductsProcessed, run.DealsProcessed,
		run.RecordsDropped, run.UnresolvedRefs, meta, run.ID); err != nil {
		return fmt.Errorf("close run: %w", err)
	}
	return nil
}

// ListRecent returns the latest runs, newest first.
func (s *RunStore) ListRecent(ctx context.Context, limit int) ([]domain.IngestionRun, error) {
	query := `SELECT id, source, site_key, status, started_at, finished_at, error,
			products_processed, deals_processed, records_dropped, unresolved_refs, metadata
		FROM ingestion_runs
		ORDER BY id DESC
		LIMIT $1`

	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.IngestionRun
	for rows.Next() {
		var (
			run      domain.IngestionRun
			status   string
			finished sql.NullTime
			meta     []byte
		)
		if err := rows.Scan(&run.ID, &run.Source, &run.SiteKey, &status,
			&run.StartedAt, &finished, &run.Error,
			&run.ProductsProcessed, &run.DealsProcessed,
			&run.RecordsDropped, &run.UnresolvedRefs, &meta); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		run.Status = domain.RunStatus(status)
		if finished.Valid {
			t := finished.Time
			run.FinishedAt = &t
		}
		if len(meta) > 0 {
			if err := json.Unmarshal(meta, &run.Metadata); err != nil {
				return nil, fmt.Errorf("decode run metadata: %w", err)
			}
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}
	return runs, nil
}

func marshalMetadata(meta map[string]string) ([]byte, error) {
	if meta == nil {
		return []byte("{}"), nil
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode run metadata: %w", err)
	}
	return raw, nil
}
