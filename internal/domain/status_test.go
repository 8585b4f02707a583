package domain

import (
	"testing"
	"time"
)

func TestComputeStatusTiers(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name      string
		expiresAt time.Time
		want      DealStatus
	}{
		{"already expired", now.Add(-2 * time.Hour), StatusExpired},
		{"expires exactly now", now, StatusExpired},
		{"expires in exactly one hour", now.Add(time.Hour), StatusExpiring1},
		{"expires in 30 minutes", now.Add(30 * time.Minute), StatusExpiring1},
		{"expires in exactly six hours", now.Add(6 * time.Hour), StatusExpiring6},
		{"expires in 3 hours", now.Add(3 * time.Hour), StatusExpiring6},
		{"expires in exactly 24 hours", now.Add(24 * time.Hour), StatusExpiring24},
		{"expires in 12 hours", now.Add(12 * time.Hour), StatusExpiring24},
		{"expires in 48 hours", now.Add(48 * time.Hour), StatusActive},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ComputeStatus(now, tc.expiresAt, nil)
			if got != tc.want {
				t.Fatalf("ComputeStatus(%v) = %s, want %s", tc.expiresAt.Sub(now), got, tc.want)
			}
		})
	}
}

func TestComputeStatusScheduled(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC)
	start := now.Add(2 * time.Hour)
	expires := now.Add(48 * time.Hour)

	if got := ComputeStatus(now, expires, &start); got != StatusScheduled {
		t.Fatalf("future start should be SCHEDULED, got %s", got)
	}

	past := now.Add(-time.Hour)
	if got := ComputeStatus(now, expires, &past); got != StatusActive {
		t.Fatalf("reached start should be ACTIVE, got %s", got)
	}

	// An expired deal is EXPIRED even when its start never arrived.
	if got := ComputeStatus(now, now.Add(-time.Minute), &start); got != StatusExpired {
		t.Fatalf("expired deal with future start should be EXPIRED, got %s", got)
	}
}

func TestComputeStatusMonotonic(t *testing.T) {
	t.Parallel()

	expires := time.Date(2025, 11, 12, 12, 0, 0, 0, time.UTC)
	start := expires.Add(-96 * time.Hour)

	prevRank := -1
	for now := start; now.Before(expires.Add(3 * time.Hour)); now = now.Add(7 * time.Minute) {
		status := ComputeStatus(now, expires, nil)
		if status.Rank() < prevRank {
			t.Fatalf("status moved backward at %v: rank %d -> %d", now, prevRank, status.Rank())
		}
		prevRank = status.Rank()
	}

	if prevRank != StatusExpired.Rank() {
		t.Fatalf("final status rank = %d, want EXPIRED", prevRank)
	}
}
