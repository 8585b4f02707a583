package domain

import "time"

// Expiry tier widths. Comparisons are inclusive at the upper bound: a deal
// expiring in exactly one hour is EXPIRING_1H, not ACTIVE.
const (
	expiring1HWindow  = time.Hour
	expiring6HWindow  = 6 * time.Hour
	expiring24HWindow = 24 * time.Hour
)

// ComputeStatus derives the lifecycle tier of a deal from wall-clock time.
// It is a pure function: the pipeline calls it on every ingestion pass and
// the expiry sweep calls it independently, so deals expire even when the
// source stops sending them. startsAt may be nil when the source provides
// no explicit start time; a non-expired deal is then ACTIVE by default.
func ComputeStatus(now time.Time, expiresAt time.Time, startsAt *time.Time) DealStatus {
	if !expiresAt.After(now) {
		return StatusExpired
	}
	if startsAt != nil && startsAt.After(now) {
		return StatusScheduled
	}

	remaining := expiresAt.Sub(now)
	switch {
	case remaining <= expiring1HWindow:
		return StatusExpiring1
	case remaining <= expiring6HWindow:
		return StatusExpiring6
	case remaining <= expiring24HWindow:
		return StatusExpiring24
	default:
		return StatusActive
	}
}
