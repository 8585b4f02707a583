package feedsrc

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/feed"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/normalize"
)

// CSS selector options for HTML listing feeds. Each selector is resolved
// inside one item node; attr-style values use "selector@attr".
const (
	optItemSel      = "itemSelector"
	optIDSel        = "idSelector"
	optTitleSel     = "titleSelector"
	optImageSel     = "imageSelector"
	optCategorySel  = "categorySelector"
	optLinkSel      = "linkSelector"
	optPriceSel     = "priceSelector"
	optOldPriceSel  = "oldPriceSelector"
	optExpirySel    = "expirySelector"
	optExpiryLayout = "expiryLayout"
)

var priceExpr = regexp.MustCompile(`\d+(?:[.,]\d{1,2})?`)

// HTMLFeed scrapes a provider listing page into canonical records using
// per-provider CSS selectors from config.
type HTMLFeed struct {
	client *http.Client
}

// NewHTMLFeed wires an HTTP client; a nil client gets a 20s-timeout default.
func NewHTMLFeed(client *http.Client) *HTMLFeed {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &HTMLFeed{client: client}
}

// Name identifies the strategy inside the registry.
func (f *HTMLFeed) Name() string {
	return "html"
}

// Pull fetches the listing page and extracts every item the selectors can
// resolve. Items missing an id or a usable price fall out in normalization.
func (f *HTMLFeed) Pull(ctx context.Context, req feed.Request) (normalize.Batch, error) {
	doc, err := f.fetchDocument(ctx, req.URL)
	if err != nil {
		return normalize.Batch{}, err
	}

	itemSel := req.Options[optItemSel]
	if itemSel == "" {
		return normalize.Batch{}, fmt.Errorf("feed %s: itemSelector option is required", req.Source)
	}

	var (
		rawProducts []normalize.RawProduct
		rawDeals    []normalize.RawDeal
	)

	doc.Find(itemSel).Each(func(_ int, item *goquery.Selection) {
		externalID := extract(item, req.Options[optIDSel])

		rawProducts = append(rawProducts, normalize.RawProduct{
			ExternalID: externalID,
			Title:      extract(item, req.Options[optTitleSel]),
			ImageURL:   extract(item, req.Options[optImageSel]),
			Category:   extract(item, req.Options[optCategorySel]),
			ProductURL: extract(item, req.Options[optLinkSel]),
		})

		rawDeals = append(rawDeals, normalize.RawDeal{
			ExternalProductID: externalID,
			CurrentPriceCents: parsePriceCents(extract(item, req.Options[optPriceSel])),
			OldPriceCents:     parsePriceCents(extract(item, req.Options[optOldPriceSel])),
			ExpiresAt:         parseExpiry(extract(item, req.Options[optExpirySel]), req.Options[optExpiryLayout]),
		})
	})

	return normalize.Build(rawProducts, rawDeals, req.FetchedAt), nil
}

func (f *HTMLFeed) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", "deals-pipeline/1.0")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// extract resolves a "selector" or "selector@attr" spec inside an item node.
func extract(item *goquery.Selection, spec string) string {
	if spec == "" {
		return ""
	}
	selector, attr := spec, ""
	if i := strings.LastIndex(spec, "@"); i >= 0 {
		selector, attr = spec[:i], spec[i+1:]
	}

	node := item
	if selector != "" {
		node = item.Find(selector).First()
	}
	if attr != "" {
		value, _ := node.Attr(attr)
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(node.Text())
}

func parsePriceCents(text string) int64 {
	match := priceExpr.FindString(text)
	if match == "" {
		return 0
	}
	match = strings.ReplaceAll(match, ",", ".")
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0
	}
	return normalize.PriceToCents(value)
}

func parseExpiry(text, layout string) time.Time {
	if text == "" {
		return time.Time{}
	}
	if layout != "" {
		if t, err := time.Parse(layout, text); err == nil {
			return t
		}
		return time.Time{}
	}
	return parseTime(text)
}
