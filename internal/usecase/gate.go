package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/ports"
)

// GateChecker consults the per-site automation gates. Every automated write
// path calls Check before doing anything; a missing row behaves exactly
// like a row with every capability disabled.
type GateChecker struct {
	store ports.GateStore
}

// NewGateChecker wires the gate store.
func NewGateChecker(store ports.GateStore) *GateChecker {
	return &GateChecker{store: store}
}

// Check returns domain.ErrGateClosed unless the stored gate row explicitly
// enables the capability for the site.
func (g *GateChecker) Check(ctx context.Context, siteKey string, capability domain.Capability) error {
	if g == nil || g.store == nil {
		return fmt.Errorf("%w: %s/%s", domain.ErrGateClosed, siteKey, capability)
	}

	gate, err := g.store.Get(ctx, siteKey)
	if err != nil {
		return fmt.Errorf("read gate %s: %w", siteKey, err)
	}
	if !gate.Allows(capability) {
		return fmt.Errorf("%w: %s/%s", domain.ErrGateClosed, siteKey, capability)
	}
	return nil
}

// Allowed is a convenience wrapper that swallows the gate-closed sentinel
// and only surfaces real store errors.
func (g *GateChecker) Allowed(ctx context.Context, siteKey string, capability domain.Capability) (bool, error) {
	err := g.Check(ctx, siteKey, capability)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, domain.ErrGateClosed) {
		return false, nil
	}
	return false, err
}
