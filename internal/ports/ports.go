package ports

import (
	"context"
	"time"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/normalize"
)

// FeedSource pulls and normalizes one provider's payload. Fetch and parse
// complete fully in memory before the pipeline writes anything.
type FeedSource interface {
	Fetch(ctx context.Context, source string) (normalize.Batch, error)
	Sources() []string
}

// ProductStore persists canonical products. UpsertByExternalID never
// touches site tags; UpdateTags is the router's dedicated write so the two
// writers cannot clobber each other.
type ProductStore interface {
	UpsertByExternalID(ctx context.Context, p domain.IngestedProduct) (domain.Product, error)
	GetByExternalID(ctx context.Context, externalID string) (domain.Product, error)
	GetByID(ctx context.Context, productID int64) (domain.Product, error)
	ListBatch(ctx context.Context, afterID int64, limit int) ([]domain.Product, error)
	UpdateTags(ctx context.Context, productID int64, tags []string) error
}

// DealStore persists deals keyed by their dedup key.
type DealStore interface {
	UpsertByDedupKey(ctx context.Context, d domain.Deal) (domain.Deal, error)
	ListLive(ctx context.Context, now time.Time, limit int) ([]domain.Deal, error)
	UpdateStatus(ctx context.Context, dealID int64, status domain.DealStatus) error
}

// RunStore appends audit rows; a run is opened once and closed once.
type RunStore interface {
	Open(ctx context.Context, run domain.IngestionRun) (domain.IngestionRun, error)
	Close(ctx context.Context, run domain.IngestionRun) error
	ListRecent(ctx context.Context, limit int) ([]domain.IngestionRun, error)
}

// GateStore reads per-site automation gates. A missing row must surface as
// a gate with every capability disabled.
type GateStore interface {
	Get(ctx context.Context, siteKey string) (domain.AutomationGate, error)
}

// SiteSource yields the site snapshot, cached per process with an explicit
// externally triggered invalidation.
type SiteSource interface {
	Sites(ctx context.Context) ([]domain.Site, error)
	Invalidate(ctx context.Context) error
}

// RunLocker serializes ingestion per site: at most one active run per site
// key, while runs for different sites proceed independently.
type RunLocker interface {
	Acquire(ctx context.Context, siteKey string, ttl time.Duration) (release func(), err error)
}

// Notifier delivers operator alerts such as run failures.
type Notifier interface {
	Alert(ctx context.Context, message string) error
}

// Scheduler drives recurring jobs.
type Scheduler interface {
	Start(ctx context.Context, interval time.Duration, job func(time.Time)) error
	Stop(ctx context.Context) error
}
