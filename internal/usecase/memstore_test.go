package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/normalize"
)

// In-memory test doubles mirroring the Postgres stores' upsert semantics.

type memProducts struct {
	mu             sync.Mutex
	byExternalID   map[string]*domain.Product
	nextID         int64
	tagWriteCount  int
	failNextUpsert error
}

func newMemProducts() *memProducts {
	return &memProducts{byExternalID: map[string]*domain.Product{}}
}

func (m *memProducts) UpsertByExternalID(_ context.Context, p domain.IngestedProduct) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNextUpsert != nil {
		err := m.failNextUpsert
		m.failNextUpsert = nil
		return domain.Product{}, err
	}

	stored, ok := m.byExternalID[p.ExternalID]
	if !ok {
		m.nextID++
		stored = &domain.Product{ID: m.nextID, ExternalID: p.ExternalID, CreatedAt: p.FetchedAt}
		m.byExternalID[p.ExternalID] = stored
	}
	stored.Title = p.Title
	stored.ImageURL = p.ImageURL
	stored.Category = p.Category
	stored.ProductURL = p.ProductURL
	stored.SourceFetchedAt = p.FetchedAt
	stored.UpdatedAt = p.FetchedAt
	return *stored, nil
}

func (m *memProducts) GetByExternalID(_ context.Context, externalID string) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if stored, ok := m.byExternalID[externalID]; ok {
		return *stored, nil
	}
	return domain.Product{}, fmt.Errorf("product %s not found", externalID)
}

func (m *memProducts) GetByID(_ context.Context, productID int64) (domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.byExternalID {
		if p.ID == productID {
			return *p, nil
		}
	}
	return domain.Product{}, fmt.Errorf("product %d not found", productID)
}

func (m *memProducts) ListBatch(_ context.Context, afterID int64, limit int) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []domain.Product
	for _, p := range m.byExternalID {
		if p.ID > afterID {
			all = append(all, *p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (m *memProducts) UpdateTags(_ context.Context, productID int64, tags []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, p := range m.byExternalID {
		if p.ID == productID {
			p.Tags = append([]string(nil), tags...)
			m.tagWriteCount++
			return nil
		}
	}
	return fmt.Errorf("product %d not found", productID)
}

func (m *memProducts) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byExternalID)
}

func (m *memProducts) get(externalID string) domain.Product {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.byExternalID[externalID]
}

type memDeals struct {
	mu       sync.Mutex
	byDedup  map[string]*domain.Deal
	nextID   int64
	failNext error
}

func newMemDeals() *memDeals {
	return &memDeals{byDedup: map[string]*domain.Deal{}}
}

func (m *memDeals) UpsertByDedupKey(_ context.Context, d domain.Deal) (domain.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failNext != nil {
		err := m.failNext
		m.failNext = nil
		return domain.Deal{}, err
	}

	stored, ok := m.byDedup[d.DedupKey]
	if !ok {
		m.nextID++
		stored = &domain.Deal{
			ID:       m.nextID,
			DedupKey: d.DedupKey,
			Approved: d.Approved,
		}
		m.byDedup[d.DedupKey] = stored
	}
	// Refresh scalar fields; manual flags survive as stored.
	stored.ProductID = d.ProductID
	stored.CurrentPriceCents = d.CurrentPriceCents
	stored.OldPriceCents = d.OldPriceCents
	stored.DiscountPercent = d.DiscountPercent
	stored.Currency = d.Currency
	stored.StartsAt = d.StartsAt
	stored.ExpiresAt = d.ExpiresAt
	stored.Status = d.Status
	return *stored, nil
}

func (m *memDeals) ListLive(_ context.Context, _ time.Time, limit int) ([]domain.Deal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var live []domain.Deal
	for _, d := range m.byDedup {
		if d.Status != domain.StatusExpired {
			live = append(live, *d)
		}
	}
	sort.Slice(live, func(i, j int) bool { return live[i].ExpiresAt.Before(live[j].ExpiresAt) })
	if len(live) > limit {
		live = live[:limit]
	}
	return live, nil
}

func (m *memDeals) UpdateStatus(_ context.Context, dealID int64, status domain.DealStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.byDedup {
		if d.ID == dealID {
			d.Status = status
			return nil
		}
	}
	return fmt.Errorf("deal %d not found", dealID)
}

func (m *memDeals) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byDedup)
}

func (m *memDeals) single() domain.Deal {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.byDedup {
		return *d
	}
	return domain.Deal{}
}

type memRuns struct {
	mu     sync.Mutex
	runs   []*domain.IngestionRun
	nextID int64
}

func newMemRuns() *memRuns {
	return &memRuns{}
}

func (m *memRuns) Open(_ context.Context, run domain.IngestionRun) (domain.IngestionRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	run.ID = m.nextID
	copied := run
	m.runs = append(m.runs, &copied)
	return run, nil
}

func (m *memRuns) Close(_ context.Context, run domain.IngestionRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, stored := range m.runs {
		if stored.ID == run.ID {
			*stored = run
			return nil
		}
	}
	return fmt.Errorf("run %d not found", run.ID)
}

func (m *memRuns) ListRecent(_ context.Context, limit int) ([]domain.IngestionRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.IngestionRun
	for i := len(m.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, *m.runs[i])
	}
	return out, nil
}

func (m *memRuns) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.runs)
}

func (m *memRuns) last() domain.IngestionRun {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.runs[len(m.runs)-1]
}

type memGates struct {
	gates map[string]domain.AutomationGate
}

func (m *memGates) Get(_ context.Context, siteKey string) (domain.AutomationGate, error) {
	if gate, ok := m.gates[siteKey]; ok {
		return gate, nil
	}
	// Missing row fails closed.
	return domain.AutomationGate{SiteKey: siteKey}, nil
}

type memSites struct {
	sites []domain.Site
}

func (m *memSites) Sites(context.Context) ([]domain.Site, error) { return m.sites, nil }
func (m *memSites) Invalidate(context.Context) error             { return nil }

type memFeed struct {
	batch normalize.Batch
	err   error
}

func (m *memFeed) Fetch(context.Context, string) (normalize.Batch, error) {
	return m.batch, m.err
}

func (m *memFeed) Sources() []string { return []string{"test-feed"} }

type memNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (m *memNotifier) Alert(_ context.Context, message string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, message)
	return nil
}
