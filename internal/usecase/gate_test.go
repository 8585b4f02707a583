package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
)

func TestGateCheckerFailsClosed(t *testing.T) {
	t.Parallel()

	checker := NewGateChecker(&memGates{gates: map[string]domain.AutomationGate{}})

	err := checker.Check(context.Background(), "nowhere", domain.CapabilityIngestion)
	if !errors.Is(err, domain.ErrGateClosed) {
		t.Fatalf("missing gate row must fail closed, got %v", err)
	}

	open, err := checker.Allowed(context.Background(), "nowhere", domain.CapabilityAutoPublish)
	if err != nil {
		t.Fatalf("Allowed: %v", err)
	}
	if open {
		t.Fatalf("missing gate row reported open")
	}
}

func TestGateCheckerCapabilitiesIndependent(t *testing.T) {
	t.Parallel()

	checker := NewGateChecker(&memGates{gates: map[string]domain.AutomationGate{
		"shop": {SiteKey: "shop", IngestionEnabled: true},
	}})

	if err := checker.Check(context.Background(), "shop", domain.CapabilityIngestion); err != nil {
		t.Fatalf("enabled capability rejected: %v", err)
	}
	if err := checker.Check(context.Background(), "shop", domain.CapabilityAutoPublish); !errors.Is(err, domain.ErrGateClosed) {
		t.Fatalf("disabled capability must stay closed, got %v", err)
	}
	if err := checker.Check(context.Background(), "shop", domain.CapabilityUnaffiliatedAutoPublish); !errors.Is(err, domain.ErrGateClosed) {
		t.Fatalf("disabled capability must stay closed, got %v", err)
	}
}
