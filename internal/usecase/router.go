package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/ports"
)

// RouterResult reports one tag recomputation pass.
type RouterResult struct {
	ProductsScanned int `json:"productsScanned"`
	ProductsUpdated int `json:"productsUpdated"`
}

// SiteRouter is the only writer of site: tags. It recomputes routing for
// every product in bounded batches, stripping stale site tags and re-adding
// the desired set while leaving free-form tags untouched.
type SiteRouter struct {
	products  ports.ProductStore
	siteSrc   ports.SiteSource
	batchSize int
	logger    *slog.Logger
}

// NewSiteRouter wires the product store and the site snapshot source.
func NewSiteRouter(products ports.ProductStore, siteSrc ports.SiteSource, batchSize int, logger *slog.Logger) *SiteRouter {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &SiteRouter{products: products, siteSrc: siteSrc, batchSize: batchSize, logger: logger}
}

// RecomputeProductSiteTags walks the catalog and reconciles every product's
// site tags against the enabled sites' category rules. Products whose tag
// set already matches are skipped so no-op writes never amplify store load.
func (r *SiteRouter) RecomputeProductSiteTags(ctx context.Context) (RouterResult, error) {
	var result RouterResult

	sites, err := r.siteSrc.Sites(ctx)
	if err != nil {
		return result, fmt.Errorf("load sites: %w", err)
	}

	afterID := int64(0)
	for {
		products, err := r.products.ListBatch(ctx, afterID, r.batchSize)
		if err != nil {
			return result, fmt.Errorf("list products after %d: %w", afterID, err)
		}
		if len(products) == 0 {
			break
		}

		for _, product := range products {
			afterID = product.ID
			result.ProductsScanned++

			desired := desiredSiteKeys(sites, product.EffectiveCategory())
			merged := domain.MergeSiteTags(product.Tags, desired)
			if domain.EqualTagSets(product.Tags, merged) {
				continue
			}

			if err := r.products.UpdateTags(ctx, product.ID, merged); err != nil {
				return result, fmt.Errorf("update tags for product %d: %w", product.ID, err)
			}
			result.ProductsUpdated++
		}

		if len(products) < r.batchSize {
			break
		}
	}

	if r.logger != nil {
		r.logger.Info("site tags recomputed",
			"scanned", result.ProductsScanned, "updated", result.ProductsUpdated)
	}
	return result, nil
}

func desiredSiteKeys(sites []domain.Site, category string) []string {
	var keys []string
	for _, site := range sites {
		if !site.Enabled {
			continue
		}
		if site.MatchesCategory(category) {
			keys = append(keys, site.Key)
		}
	}
	return keys
}
