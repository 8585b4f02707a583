package domain

import "testing"

func TestMatchesCategory(t *testing.T) {
	t.Parallel()

	catchAll := Site{Key: "b", Enabled: true}
	if !catchAll.MatchesCategory("Sports") {
		t.Fatalf("empty category list must accept everything")
	}

	electronics := Site{Key: "a", Enabled: true, DefaultCategories: []string{"Electronics"}}
	if !electronics.MatchesCategory("electronics") {
		t.Fatalf("category match must be case-insensitive")
	}
	if electronics.MatchesCategory("Sports") {
		t.Fatalf("non-listed category must not match")
	}
}

func TestResolveSiteByHost(t *testing.T) {
	t.Parallel()

	sites := []Site{
		{Key: "usa", Domain: "trendsinusa.com", Enabled: true},
		{Key: "usa-deals", Domain: "deals.trendsinusa.com", Enabled: true},
		{Key: "disabled", Domain: "off.example.com", Enabled: false},
	}

	site, ok := ResolveSiteByHost(sites, "www.trendsinusa.com")
	if !ok || site.Key != "usa" {
		t.Fatalf("resolved %q ok=%v, want usa", site.Key, ok)
	}

	// Longest suffix wins for the nested storefront.
	site, ok = ResolveSiteByHost(sites, "deals.trendsinusa.com:443")
	if !ok || site.Key != "usa-deals" {
		t.Fatalf("resolved %q ok=%v, want usa-deals", site.Key, ok)
	}

	if _, ok := ResolveSiteByHost(sites, "off.example.com"); ok {
		t.Fatalf("disabled site must not resolve")
	}

	if _, ok := ResolveSiteByHost(sites, "unknown.example.org"); ok {
		t.Fatalf("unknown host must not resolve")
	}
}
