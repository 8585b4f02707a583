package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/ports"
)

// SweepResult reports one expiry sweep pass.
type SweepResult struct {
	DealsScanned  int `json:"dealsScanned"`
	DealsAdvanced int `json:"dealsAdvanced"`
}

// ExpirySweep recomputes deal statuses on wall-clock time, independent of
// ingestion activity: deals must expire even when the source stops sending
// them.
type ExpirySweep struct {
	deals     ports.DealStore
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

// NewExpirySweep wires the deal store.
func NewExpirySweep(deals ports.DealStore, batchSize int, logger *slog.Logger, now func() time.Time) *ExpirySweep {
	if batchSize <= 0 {
		batchSize = 1000
	}
	if now == nil {
		now = time.Now
	}
	return &ExpirySweep{deals: deals, batchSize: batchSize, logger: logger, now: now}
}

// Run advances the status of every live deal whose tier moved since the
// last pass. Status only ever moves forward through the tier ordering.
func (s *ExpirySweep) Run(ctx context.Context) (SweepResult, error) {
	var result SweepResult

	now := s.now()
	live, err := s.deals.ListLive(ctx, now, s.batchSize)
	if err != nil {
		return result, fmt.Errorf("list live deals: %w", err)
	}

	for _, deal := range live {
		result.DealsScanned++

		next := domain.ComputeStatus(now, deal.ExpiresAt, deal.StartsAt)
		if next == deal.Status {
			continue
		}
		if next.Rank() < deal.Status.Rank() {
			// Clock skew between stores must not move a deal backward.
			continue
		}

		if err := s.deals.UpdateStatus(ctx, deal.ID, next); err != nil {
			return result, fmt.Errorf("advance deal %d to %s: %w", deal.ID, next, err)
		}
		result.DealsAdvanced++
	}

	if s.logger != nil {
		s.logger.Info("expiry sweep done",
			"scanned", result.DealsScanned, "advanced", result.DealsAdvanced)
	}
	return result, nil
}
