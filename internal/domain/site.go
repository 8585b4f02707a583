package domain

import "strings"

// Site is a white-labeled storefront with its own domain and routing rules.
type Site struct {
	Key                 string
	Domain              string
	Enabled             bool
	DefaultCategories   []string
	AffiliatePriorities []string
}

// MatchesCategory reports whether a product category routes to this site.
// An empty DefaultCategories list means the site accepts every category.
func (s Site) MatchesCategory(category string) bool {
	if len(s.DefaultCategories) == 0 {
		return true
	}
	for _, c := range s.DefaultCategories {
		if strings.EqualFold(c, category) {
			return true
		}
	}
	return false
}

// ResolveSiteByHost maps an inbound request host to a site by longest-suffix
// domain match over enabled sites. Returns false when no site matches.
func ResolveSiteByHost(sites []Site, host string) (Site, bool) {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	if i := strings.LastIndex(host, ":"); i >= 0 {
		host = host[:i]
	}

	var (
		best    Site
		bestLen = -1
	)
	for _, site := range sites {
		if !site.Enabled || site.Domain == "" {
			continue
		}
		dom := strings.ToLower(site.Domain)
		if host != dom && !strings.HasSuffix(host, "."+dom) {
			continue
		}
		if len(dom) > bestLen {
			best = site
			bestLen = len(dom)
		}
	}
	return best, bestLen >= 0
}
