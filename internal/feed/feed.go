package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/normalize"
)

// Request carries everything a provider needs to pull one payload.
type Request struct {
	Source    string
	URL       string
	FetchedAt time.Time
	Options   map[string]string
}

// Provider captures a single feed strategy (JSON API, HTML listing, etc.).
type Provider interface {
	Name() string
	Pull(ctx context.Context, req Request) (normalize.Batch, error)
}

// Registry maps provider kinds to their implementations.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds an empty registry.
func NewRegistry() *Registry {
	return &Registry{providers: map[string]Provider{}}
}

// Register adds or replaces a provider implementation.
func (r *Registry) Register(p Provider) {
	if r.providers == nil {
		r.providers = map[string]Provider{}
	}
	r.providers[p.Name()] = p
}

// Resolve returns a provider by name or an error if it is absent.
func (r *Registry) Resolve(name string) (Provider, error) {
	if p, ok := r.providers[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("feed provider %s is not registered", name)
}
