package domain

import (
	"sort"
	"strings"
	"time"
)

// SiteTagPrefix marks tags owned by the site router. No other writer may
// add or remove a tag carrying this prefix.
const SiteTagPrefix = "site:"

// Product is the canonical catalog entry shared by every storefront.
type Product struct {
	ID               int64
	ExternalID       string
	Title            string
	ImageURL         string
	Category         string
	CategoryOverride string
	ProductURL       string
	Tags             []string
	Blocked          bool
	SourceFetchedAt  time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EffectiveCategory resolves the category used for routing decisions;
// an admin override always wins over the ingested value.
func (p Product) EffectiveCategory() string {
	if p.CategoryOverride != "" {
		return p.CategoryOverride
	}
	return p.Category
}

// HasSiteTag reports whether the product is routed to the given site key.
func (p Product) HasSiteTag(siteKey string) bool {
	want := SiteTag(siteKey)
	for _, tag := range p.Tags {
		if tag == want {
			return true
		}
	}
	return false
}

// SiteTag builds the router-owned tag for a site key.
func SiteTag(siteKey string) string {
	return SiteTagPrefix + siteKey
}

// IsSiteTag reports whether a tag is router-owned.
func IsSiteTag(tag string) bool {
	return strings.HasPrefix(tag, SiteTagPrefix)
}

// MergeSiteTags strips every site tag from existing and re-adds the desired
// set, preserving free-form tags untouched. The result is deduplicated and
// sorted so callers can compare tag sets without caring about order.
func MergeSiteTags(existing []string, desiredSiteKeys []string) []string {
	merged := make([]string, 0, len(existing)+len(desiredSiteKeys))
	seen := map[string]struct{}{}

	for _, tag := range existing {
		if IsSiteTag(tag) {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		merged = append(merged, tag)
	}

	for _, key := range desiredSiteKeys {
		tag := SiteTag(key)
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		merged = append(merged, tag)
	}

	sort.Strings(merged)
	return merged
}

// EqualTagSets compares two tag slices as sets, ignoring order and
// duplicate entries.
func EqualTagSets(a, b []string) bool {
	setA := make(map[string]struct{}, len(a))
	for _, tag := range a {
		setA[tag] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, tag := range b {
		if _, ok := setA[tag]; !ok {
			return false
		}
		setB[tag] = struct{}{}
	}
	return len(setA) == len(setB)
}

// IngestedProduct is a normalized product record produced from a provider
// payload, keyed by the provider-scoped external id.
type IngestedProduct struct {
	ExternalID string
	Title      string
	ImageURL   string
	Category   string
	ProductURL string
	FetchedAt  time.Time
}
