package feedsrc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/config"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/feed"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/normalize"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/ports"
)

// StrategySource implements FeedSource via registered provider strategies.
type StrategySource struct {
	registry  *feed.Registry
	providers []config.ProviderConfig
	logger    *slog.Logger
	now       func() time.Time
}

var _ ports.FeedSource = (*StrategySource)(nil)

// NewStrategySource wires the provider registry with config-defined feeds.
func NewStrategySource(reg *feed.Registry, providers []config.ProviderConfig, log *slog.Logger) *StrategySource {
	return &StrategySource{
		registry:  reg,
		providers: providers,
		logger:    log,
		now:       time.Now,
	}
}

// Sources lists the configured feed names.
func (s *StrategySource) Sources() []string {
	names := make([]string, 0, len(s.providers))
	for _, p := range s.providers {
		names = append(names, p.Name)
	}
	return names
}

// Fetch resolves the named feed to its strategy and pulls one normalized
// batch. The whole payload is parsed in memory before returning.
func (s *StrategySource) Fetch(ctx context.Context, source string) (normalize.Batch, error) {
	if s.registry == nil {
		return normalize.Batch{}, fmt.Errorf("feed registry is not configured")
	}

	cfg, ok := s.providerConfig(source)
	if !ok {
		return normalize.Batch{}, fmt.Errorf("feed %s is not configured", source)
	}

	strategy, err := s.registry.Resolve(cfg.Kind)
	if err != nil {
		return normalize.Batch{}, fmt.Errorf("feed %s: %w", source, err)
	}

	req := feed.Request{
		Source:    source,
		URL:       cfg.URL,
		FetchedAt: s.now(),
		Options:   cfg.Options,
	}

	batch, err := strategy.Pull(ctx, req)
	if err != nil {
		return normalize.Batch{}, fmt.Errorf("pull feed %s: %w", source, err)
	}

	s.debug("feed pulled", "source", source,
		"products", len(batch.Products), "deals", len(batch.Deals),
		"dropped_products", batch.DroppedProducts, "dropped_deals", batch.DroppedDeals)
	return batch, nil
}

func (s *StrategySource) providerConfig(source string) (config.ProviderConfig, bool) {
	for _, p := range s.providers {
		if p.Name == source {
			return p, true
		}
	}
	return config.ProviderConfig{}, false
}

func (s *StrategySource) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
