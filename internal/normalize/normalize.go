// Package normalize converts loosely validated provider records into a
// canonical batch the pipeline can write. Malformed records are dropped and
// counted, never fatal: one bad record must not abort the whole batch.
package normalize

import (
	"strings"
	"time"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
)

// RawProduct is a provider record before canonical validation.
type RawProduct struct {
	ExternalID string
	Title      string
	ImageURL   string
	Category   string
	ProductURL string
}

// RawDeal is a provider offer before canonical validation.
type RawDeal struct {
	ExternalProductID string
	CurrentPriceCents int64
	OldPriceCents     int64 // 0 means absent
	Currency          string
	StartsAt          *time.Time
	ExpiresAt         time.Time
}

// Batch is the canonical output of normalization: every product has a
// non-empty external id, every deal has a positive price and refers to a
// product in the same batch.
type Batch struct {
	Products []domain.IngestedProduct
	Deals    []domain.IngestedDeal

	DroppedProducts int
	DroppedDeals    int
}

// Empty reports whether the batch carries nothing to ingest.
func (b Batch) Empty() bool {
	return len(b.Products) == 0 && len(b.Deals) == 0
}

// Build validates raw provider records into a Batch. fetchedAt stamps every
// product's staleness clock. Deals referencing a product absent from the
// batch are kept: the pipeline resolves them against previously stored
// products and counts the ones that stay unresolved.
func Build(raw []RawProduct, rawDeals []RawDeal, fetchedAt time.Time) Batch {
	var batch Batch
	seen := map[string]struct{}{}

	for _, rp := range raw {
		id := strings.TrimSpace(rp.ExternalID)
		if id == "" {
			batch.DroppedProducts++
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		batch.Products = append(batch.Products, domain.IngestedProduct{
			ExternalID: id,
			Title:      strings.TrimSpace(rp.Title),
			ImageURL:   rp.ImageURL,
			Category:   strings.TrimSpace(rp.Category),
			ProductURL: rp.ProductURL,
			FetchedAt:  fetchedAt,
		})
	}

	for _, rd := range rawDeals {
		id := strings.TrimSpace(rd.ExternalProductID)
		if id == "" || rd.CurrentPriceCents <= 0 || rd.ExpiresAt.IsZero() {
			batch.DroppedDeals++
			continue
		}

		var old *int64
		if rd.OldPriceCents > 0 {
			if rd.OldPriceCents < rd.CurrentPriceCents {
				// A raised price is not a markdown; drop the claim, keep the deal.
				old = nil
			} else {
				v := rd.OldPriceCents
				old = &v
			}
		}

		currency := strings.ToUpper(strings.TrimSpace(rd.Currency))
		if currency == "" {
			currency = "USD"
		}

		batch.Deals = append(batch.Deals, domain.IngestedDeal{
			ExternalProductID: id,
			CurrentPriceCents: rd.CurrentPriceCents,
			OldPriceCents:     old,
			Currency:          currency,
			StartsAt:          rd.StartsAt,
			ExpiresAt:         rd.ExpiresAt,
		})
	}

	return batch
}

// PriceToCents converts a decimal price into integer cents, guarding
// against float drift on provider payloads that ship "59.99".
func PriceToCents(price float64) int64 {
	if price <= 0 {
		return 0
	}
	return int64(price*100 + 0.5)
}
