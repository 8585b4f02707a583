package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
)

func TestExpirySweepAdvances(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC)
	deals := newMemDeals()

	mustUpsert := func(d domain.Deal) {
		if _, err := deals.UpsertByDedupKey(context.Background(), d); err != nil {
			t.Fatalf("seed deal: %v", err)
		}
	}

	// Stored as ACTIVE while ingestion last saw it far from expiry; the
	// clock has since moved inside the 6h window.
	mustUpsert(domain.Deal{
		DedupKey:          "closing",
		CurrentPriceCents: 100,
		ExpiresAt:         now.Add(3 * time.Hour),
		Status:            domain.StatusActive,
	})
	// Already past expiry but still marked EXPIRING_1H.
	mustUpsert(domain.Deal{
		DedupKey:          "overdue",
		CurrentPriceCents: 100,
		ExpiresAt:         now.Add(-time.Minute),
		Status:            domain.StatusExpiring1,
	})
	// Far from expiry, nothing to do.
	mustUpsert(domain.Deal{
		DedupKey:          "fresh",
		CurrentPriceCents: 100,
		ExpiresAt:         now.Add(72 * time.Hour),
		Status:            domain.StatusActive,
	})

	sweep := NewExpirySweep(deals, 100, nil, func() time.Time { return now })
	result, err := sweep.Run(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if result.DealsScanned != 3 {
		t.Fatalf("scanned = %d, want 3", result.DealsScanned)
	}
	if result.DealsAdvanced != 2 {
		t.Fatalf("advanced = %d, want 2", result.DealsAdvanced)
	}

	if got := deals.byDedup["closing"].Status; got != domain.StatusExpiring6 {
		t.Fatalf("closing deal status = %s, want EXPIRING_6H", got)
	}
	if got := deals.byDedup["overdue"].Status; got != domain.StatusExpired {
		t.Fatalf("overdue deal status = %s, want EXPIRED", got)
	}
}

func TestExpirySweepNeverMovesBackward(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC)
	deals := newMemDeals()

	// A row that somehow carries a later tier than the clock implies must
	// stay where it is rather than regress.
	if _, err := deals.UpsertByDedupKey(context.Background(), domain.Deal{
		DedupKey:          "ahead",
		CurrentPriceCents: 100,
		ExpiresAt:         now.Add(48 * time.Hour),
		Status:            domain.StatusExpiring6,
	}); err != nil {
		t.Fatalf("seed deal: %v", err)
	}

	sweep := NewExpirySweep(deals, 100, nil, func() time.Time { return now })
	result, err := sweep.Run(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}

	if result.DealsAdvanced != 0 {
		t.Fatalf("advanced = %d, want 0", result.DealsAdvanced)
	}
	if got := deals.byDedup["ahead"].Status; got != domain.StatusExpiring6 {
		t.Fatalf("status regressed to %s", got)
	}
}
