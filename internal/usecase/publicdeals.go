package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/ports"
)

// PublicDeal pairs a deal with its product for read-side rendering.
type PublicDeal struct {
	Deal    domain.Deal    `json:"deal"`
	Product domain.Product `json:"product"`
}

// PublicDeals serves the read path: the live deals a site may currently
// render, re-validated through the eligibility predicate with the configured
// staleness window.
type PublicDeals struct {
	deals     ports.DealStore
	products  ports.ProductStore
	staleness time.Duration
	batchSize int
	logger    *slog.Logger
	now       func() time.Time
}

// NewPublicDeals wires the stores and the staleness window; a non-positive
// window falls back to the domain default.
func NewPublicDeals(deals ports.DealStore, products ports.ProductStore,
	staleness time.Duration, batchSize int, logger *slog.Logger, now func() time.Time) *PublicDeals {
	if staleness <= 0 {
		staleness = domain.DefaultStalenessWindow
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	if now == nil {
		now = time.Now
	}
	return &PublicDeals{
		deals:     deals,
		products:  products,
		staleness: staleness,
		batchSize: batchSize,
		logger:    logger,
		now:       now,
	}
}

// ListForSite returns every live deal eligible for public display on the
// site. A deal whose product cannot be loaded is withheld, not an error:
// the read filter fails closed.
func (p *PublicDeals) ListForSite(ctx context.Context, siteKey string) ([]PublicDeal, error) {
	now := p.now()
	live, err := p.deals.ListLive(ctx, now, p.batchSize)
	if err != nil {
		return nil, fmt.Errorf("list live deals: %w", err)
	}

	out := make([]PublicDeal, 0, len(live))
	for _, deal := range live {
		product, err := p.products.GetByID(ctx, deal.ProductID)
		if err != nil {
			if p.logger != nil {
				p.logger.Warn("deal withheld, product unreadable",
					"deal", deal.ID, "product", deal.ProductID, "error", err)
			}
			continue
		}
		if !domain.IsDealPublicWithin(deal, product, siteKey, now, p.staleness) {
			continue
		}
		out = append(out, PublicDeal{Deal: deal, Product: product})
	}
	return out, nil
}
