package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"time"
)

// DealStatus enumerates the time-derived lifecycle tiers of a deal.
type DealStatus string

const (
	StatusScheduled  DealStatus = "SCHEDULED"
	StatusActive     DealStatus = "ACTIVE"
	StatusExpiring24 DealStatus = "EXPIRING_24H"
	StatusExpiring6  DealStatus = "EXPIRING_6H"
	StatusExpiring1  DealStatus = "EXPIRING_1H"
	StatusExpired    DealStatus = "EXPIRED"
)

// statusOrder defines the forward-only progression of tiers over time.
var statusOrder = map[DealStatus]int{
	StatusScheduled:  0,
	StatusActive:     1,
	StatusExpiring24: 2,
	StatusExpiring6:  3,
	StatusExpiring1:  4,
	StatusExpired:    5,
}

// Rank returns the position of a status in the lifecycle ordering.
func (s DealStatus) Rank() int {
	return statusOrder[s]
}

// Live reports whether the status is in the non-expired set.
func (s DealStatus) Live() bool {
	return s != StatusExpired && s != ""
}

// Deal is a time-bounded offer attached to a Product. Manual override flags
// (Suppressed, Approved) never alter the time-derived status, only whether
// the deal is allowed to surface.
type Deal struct {
	ID                int64
	ProductID         int64
	DedupKey          string
	CurrentPriceCents int64
	OldPriceCents     *int64
	DiscountPercent   *int
	Currency          string
	StartsAt          *time.Time
	ExpiresAt         time.Time
	Status            DealStatus
	Suppressed        bool
	Approved          bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// HasMarkdown reports whether the deal carries a real price reduction.
func (d Deal) HasMarkdown() bool {
	return d.OldPriceCents != nil && *d.OldPriceCents > d.CurrentPriceCents
}

// IngestedDeal is a normalized deal record referencing a product by its
// provider-scoped external id.
type IngestedDeal struct {
	ExternalProductID string
	CurrentPriceCents int64
	OldPriceCents     *int64
	Currency          string
	StartsAt          *time.Time
	ExpiresAt         time.Time
}

// DedupKey identifies "the same deal" across repeated ingestions: a source
// re-sending an offer for the same product at the same price is a refresh
// of the stored row, not a new deal. Expiry is deliberately excluded so an
// extended or shortened deadline updates the row in place instead of
// spawning a duplicate.
func (d IngestedDeal) DedupKey() string {
	raw := fmt.Sprintf("%s|%d", d.ExternalProductID, d.CurrentPriceCents)
	sum := sha1.Sum([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// Discount derives the rounded markdown percentage, or nil when the old
// price is absent or not an actual reduction.
func Discount(oldCents *int64, currentCents int64) *int {
	if oldCents == nil || *oldCents <= 0 || currentCents <= 0 || *oldCents <= currentCents {
		return nil
	}
	pct := int((float64(*oldCents-currentCents)/float64(*oldCents))*100 + 0.5)
	return &pct
}
