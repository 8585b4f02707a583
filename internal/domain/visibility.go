package domain

import "time"

// DefaultStalenessWindow bounds how old a product's source data may be
// before its deals stop rendering.
const DefaultStalenessWindow = 72 * time.Hour

// Sponsored placements require a sane, real markdown before they may occupy
// a paid slot.
const (
	sponsoredMinDiscount = 5
	sponsoredMaxDiscount = 95
)

// IsDealPublic is the read-time eligibility predicate. It re-validates
// everything independently of what the pipeline wrote, so an ingestion bug
// or a stale row never renders: approval and suppression flags, live
// status, unexpired wall-clock time, price sanity, site routing, product
// block flag, a non-empty title, and source freshness all must hold.
func IsDealPublic(deal Deal, product Product, siteKey string, now time.Time) bool {
	return IsDealPublicWithin(deal, product, siteKey, now, DefaultStalenessWindow)
}

// IsDealPublicWithin is IsDealPublic with an explicit staleness window, for
// deployments that tune how long source data stays trustworthy. A
// non-positive window falls back to the default.
func IsDealPublicWithin(deal Deal, product Product, siteKey string, now time.Time, staleness time.Duration) bool {
	if staleness <= 0 {
		staleness = DefaultStalenessWindow
	}
	if !deal.Approved || deal.Suppressed {
		return false
	}
	if !deal.Status.Live() {
		return false
	}
	if !deal.ExpiresAt.After(now) {
		return false
	}
	if deal.CurrentPriceCents <= 0 {
		return false
	}
	if deal.OldPriceCents != nil && *deal.OldPriceCents <= deal.CurrentPriceCents {
		return false
	}
	if !product.HasSiteTag(siteKey) {
		return false
	}
	if product.Blocked || product.Title == "" {
		return false
	}
	if product.SourceFetchedAt.IsZero() || now.Sub(product.SourceFetchedAt) > staleness {
		return false
	}
	return true
}

// IsSponsoredEligible layers the stricter discount-sanity check required
// for paid placement slots on top of the public predicate.
func IsSponsoredEligible(deal Deal, product Product, siteKey string, now time.Time) bool {
	if !IsDealPublic(deal, product, siteKey, now) {
		return false
	}
	if !deal.HasMarkdown() {
		return false
	}
	pct := Discount(deal.OldPriceCents, deal.CurrentPriceCents)
	if pct == nil {
		return false
	}
	return *pct >= sponsoredMinDiscount && *pct <= sponsoredMaxDiscount
}
