package feedsrc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/feed"
)

func TestHTMLFeedPull(t *testing.T) {
	t.Parallel()

	page := `<html><body>
	<div class="deal" data-sku="seed-001">
		<h3 class="title">Noise Cancelling Headphones</h3>
		<span class="cat">Electronics</span>
		<a class="link" href="https://shop.example.org/seed-001">view</a>
		<span class="price">$59.99</span>
		<span class="old-price">$99.99</span>
		<time class="ends">2025-11-10T13:00:00Z</time>
	</div>
	<div class="deal" data-sku="">
		<h3 class="title">No SKU</h3>
		<span class="price">$10.00</span>
		<time class="ends">2025-11-10T13:00:00Z</time>
	</div>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	f := NewHTMLFeed(srv.Client())
	batch, err := f.Pull(context.Background(), feed.Request{
		Source:    "test",
		URL:       srv.URL,
		FetchedAt: time.Date(2025, 11, 10, 12, 0, 0, 0, time.UTC),
		Options: map[string]string{
			"itemSelector":     "div.deal",
			"idSelector":       "@data-sku",
			"titleSelector":    "h3.title",
			"categorySelector": "span.cat",
			"linkSelector":     "a.link@href",
			"priceSelector":    "span.price",
			"oldPriceSelector": "span.old-price",
			"expirySelector":   "time.ends",
		},
	})
	if err != nil {
		t.Fatalf("Pull: %v", err)
	}

	if len(batch.Products) != 1 || len(batch.Deals) != 1 {
		t.Fatalf("batch = %d products / %d deals, want 1/1", len(batch.Products), len(batch.Deals))
	}

	p := batch.Products[0]
	if p.ExternalID != "seed-001" || p.ProductURL != "https://shop.example.org/seed-001" {
		t.Fatalf("unexpected product: %+v", p)
	}

	d := batch.Deals[0]
	if d.CurrentPriceCents != 5999 {
		t.Fatalf("price = %d, want 5999", d.CurrentPriceCents)
	}
	if d.OldPriceCents == nil || *d.OldPriceCents != 9999 {
		t.Fatalf("old price = %v, want 9999", d.OldPriceCents)
	}
}

func TestHTMLFeedRequiresItemSelector(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer srv.Close()

	f := NewHTMLFeed(srv.Client())
	if _, err := f.Pull(context.Background(), feed.Request{URL: srv.URL}); err == nil {
		t.Fatalf("expected error without itemSelector")
	}
}

func TestParsePriceCents(t *testing.T) {
	t.Parallel()

	cases := []struct {
		text string
		want int64
	}{
		{"$59.99", 5999},
		{"59,99 €", 5999},
		{"was 100", 10000},
		{"free", 0},
		{"", 0},
	}
	for _, tc := range cases {
		if got := parsePriceCents(tc.text); got != tc.want {
			t.Fatalf("parsePriceCents(%q) = %d, want %d", tc.text, got, tc.want)
		}
	}
}
