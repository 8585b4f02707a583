package feedsrc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/feed"
)

func TestJSONFeedPull(t *testing.T) {
	t.Parallel()

	payload := `{
		"deals": [
			{
				"sku": "seed-001",
				"name": "Noise Cancelling Headphones",
				"cat": "Electronics",
				"link": "https://shop.example.org/seed-001",
				"price": 59.99,
				"was": 99.99,
				"ends": "2025-11-10T13:00:00Z"
			},
			{
				"sku": "",
				"name": "Broken Record",
				"price": 10.00,
				"ends": "2025-11-10T13:00:00Z"
			}
		]
	}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	f := NewJSONFeed(srv.Client())
	batch, err := f.Pull(context.Background(), feed.Request{
		Source:    "test",
		URL:       srv.URL,
		FetchedAt: time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC),
		Options: map[string]string{
			"items":      "deals",
			"externalId": "sku",
			"title":      "name",
			"category":   "cat",
			"productUrl": "link",
			"price":      "price",
			"oldPrice":   "was",
			"expiresAt":  "ends",
		},
	})
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}

	if len(batch.Products) != 1 {
		t.Fatalf("products = %d, want 1 (empty id dropped)", len(batch.Products))
	}
	p := batch.Products[0]
	if p.ExternalID != "seed-001" || p.Title != "Noise Cancelling Headphones" || p.Category != "Electronics" {
		t.Fatalf("unexpected product: %+v", p)
	}

	if len(batch.Deals) != 1 {
		t.Fatalf("deals = %d, want 1", len(batch.Deals))
	}
	d := batch.Deals[0]
	if d.CurrentPriceCents != 5999 {
		t.Fatalf("price = %d, want 5999", d.CurrentPriceCents)
	}
	if d.OldPriceCents == nil || *d.OldPriceCents != 9999 {
		t.Fatalf("old price = %v, want 9999", d.OldPriceCents)
	}
	if !d.ExpiresAt.Equal(time.Date(2025, 11, 10, 13, 0, 0, 0, time.UTC)) {
		t.Fatalf("expiry = %v", d.ExpiresAt)
	}

	if batch.DroppedProducts != 1 || batch.DroppedDeals != 1 {
		t.Fatalf("dropped = %d/%d, want 1/1", batch.DroppedProducts, batch.DroppedDeals)
	}
}

func TestJSONFeedHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	f := NewJSONFeed(srv.Client())
	if _, err := f.Pull(context.Background(), feed.Request{URL: srv.URL}); err == nil {
		t.Fatalf("expected error on non-200 response")
	}
}
