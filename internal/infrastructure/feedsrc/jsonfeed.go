package feedsrc

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/feed"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/normalize"
)

// Default gjson paths for providers that follow the common feed shape.
// Every path is overridable per provider via config options.
const (
	optItems      = "items"
	optExternalID = "externalId"
	optTitle      = "title"
	optImageURL   = "imageUrl"
	optCategory   = "category"
	optProductURL = "productUrl"
	optPrice      = "price"
	optOldPrice   = "oldPrice"
	optCurrency   = "currency"
	optStartsAt   = "startsAt"
	optExpiresAt  = "expiresAt"
)

var jsonDefaults = map[string]string{
	optItems:      "items",
	optExternalID: "id",
	optTitle:      "title",
	optImageURL:   "image_url",
	optCategory:   "category",
	optProductURL: "url",
	optPrice:      "price",
	optOldPrice:   "old_price",
	optCurrency:   "currency",
	optStartsAt:   "starts_at",
	optExpiresAt:  "expires_at",
}

// JSONFeed pulls a provider's JSON payload and maps it onto canonical
// records using configurable gjson paths, so heterogeneous provider schemas
// need config, not code.
type JSONFeed struct {
	client *http.Client
}

// NewJSONFeed wires an HTTP client; a nil client gets a 20s-timeout default.
func NewJSONFeed(client *http.Client) *JSONFeed {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	return &JSONFeed{client: client}
}

// Name identifies the strategy inside the registry.
func (f *JSONFeed) Name() string {
	return "json"
}

// Pull fetches the payload and normalizes every item it can parse.
// Malformed items are dropped by normalization, never fatal.
func (f *JSONFeed) Pull(ctx context.Context, req feed.Request) (normalize.Batch, error) {
	body, err := f.fetch(ctx, req.URL)
	if err != nil {
		return normalize.Batch{}, err
	}
	return f.parse(body, req), nil
}

func (f *JSONFeed) fetch(ctx context.Context, url string) ([]byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("User-Agent", "deals-pipeline/1.0")

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read feed body: %w", err)
	}
	return body, nil
}

func (f *JSONFeed) parse(body []byte, req feed.Request) normalize.Batch {
	path := func(key string) string {
		if v, ok := req.Options[key]; ok && v != "" {
			return v
		}
		return jsonDefaults[key]
	}

	var (
		rawProducts []normalize.RawProduct
		rawDeals    []normalize.RawDeal
	)

	items := gjson.GetBytes(body, path(optItems))
	items.ForEach(func(_, item gjson.Result) bool {
		externalID := item.Get(path(optExternalID)).String()

		rawProducts = append(rawProducts, normalize.RawProduct{
			ExternalID: externalID,
			Title:      item.Get(path(optTitle)).String(),
			ImageURL:   item.Get(path(optImageURL)).String(),
			Category:   item.Get(path(optCategory)).String(),
			ProductURL: item.Get(path(optProductURL)).String(),
		})

		rawDeals = append(rawDeals, normalize.RawDeal{
			ExternalProductID: externalID,
			CurrentPriceCents: normalize.PriceToCents(item.Get(path(optPrice)).Float()),
			OldPriceCents:     normalize.PriceToCents(item.Get(path(optOldPrice)).Float()),
			Currency:          item.Get(path(optCurrency)).String(),
			StartsAt:          parseTimePtr(item.Get(path(optStartsAt)).String()),
			ExpiresAt:         parseTime(item.Get(path(optExpiresAt)).String()),
		})
		return true
	})

	return normalize.Build(rawProducts, rawDeals, req.FetchedAt)
}

func parseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t
		}
	}
	return time.Time{}
}

func parseTimePtr(value string) *time.Time {
	t := parseTime(value)
	if t.IsZero() {
		return nil
	}
	return &t
}
