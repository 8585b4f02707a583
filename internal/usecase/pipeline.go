package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/normalize"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/ports"
)

// PipelineDeps wires all driven adapters into the ingestion pipeline.
type PipelineDeps struct {
	Feeds    ports.FeedSource
	Products ports.ProductStore
	Deals    ports.DealStore
	Runs     ports.RunStore
	Gates    *GateChecker
	SiteSrc  ports.SiteSource
	Locker   ports.RunLocker
	Notifier ports.Notifier
	Logger   *slog.Logger

	RunLockTTL time.Duration
	Now        func() time.Time
}

// Pipeline implements the ingestion workflow: fetch and normalize fully in
// memory, check the gate, then upsert products and deals under an audited
// IngestionRun that always reaches a terminal status.
type Pipeline struct {
	feeds    ports.FeedSource
	products ports.ProductStore
	deals    ports.DealStore
	runs     ports.RunStore
	gates    *GateChecker
	siteSrc  ports.SiteSource
	locker   ports.RunLocker
	notifier ports.Notifier
	logger   *slog.Logger

	lockTTL time.Duration
	now     func() time.Time
}

// NewPipeline constructs the orchestration component.
func NewPipeline(deps PipelineDeps) *Pipeline {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	lockTTL := deps.RunLockTTL
	if lockTTL <= 0 {
		lockTTL = 10 * time.Minute
	}
	return &Pipeline{
		feeds:    deps.Feeds,
		products: deps.Products,
		deals:    deps.Deals,
		runs:     deps.Runs,
		gates:    deps.Gates,
		siteSrc:  deps.SiteSrc,
		locker:   deps.Locker,
		notifier: deps.Notifier,
		logger:   deps.Logger,
		lockTTL:  lockTTL,
		now:      now,
	}
}

// RunIngestion executes one audited ingestion pass for a source feeding the
// given site. A closed ingestion gate is an expected outcome: the run
// records SUCCESS with metadata.skipped=true and performs zero catalog
// writes. An upstream fetch failure aborts before any run row exists.
func (p *Pipeline) RunIngestion(ctx context.Context, source, siteKey string) (domain.IngestionRun, error) {
	open, err := p.gates.Allowed(ctx, siteKey, domain.CapabilityIngestion)
	if err != nil {
		return domain.IngestionRun{}, fmt.Errorf("gate check: %w", err)
	}
	if !open {
		return p.recordSkipped(ctx, source, siteKey)
	}

	if p.locker != nil {
		release, lockErr := p.locker.Acquire(ctx, siteKey, p.lockTTL)
		if lockErr != nil {
			if errors.Is(lockErr, domain.ErrRunInProgress) {
				return domain.IngestionRun{}, lockErr
			}
			return domain.IngestionRun{}, fmt.Errorf("acquire run lock: %w", lockErr)
		}
		defer release()
	}

	// Fetch + normalize entirely in memory before the write phase; a fetch
	// failure must not leave a half-written batch or a STARTED run row.
	batch, err := p.feeds.Fetch(ctx, source)
	if err != nil {
		return domain.IngestionRun{}, fmt.Errorf("%w: source %s: %v", domain.ErrUpstreamFetch, source, err)
	}

	run, err := p.runs.Open(ctx, domain.IngestionRun{
		Source:    source,
		SiteKey:   siteKey,
		Status:    domain.RunStarted,
		StartedAt: p.now(),
	})
	if err != nil {
		return domain.IngestionRun{}, fmt.Errorf("open run: %w", err)
	}

	if err := p.ingestBatch(ctx, siteKey, source, batch, &run); err != nil {
		run.Status = domain.RunFailure
		run.Error = err.Error()
		p.closeRun(ctx, &run)
		p.alertFailure(ctx, run)
		return run, err
	}

	run.Status = domain.RunSuccess
	p.closeRun(ctx, &run)
	p.info("ingestion done", "source", source, "site", siteKey,
		"products", run.ProductsProcessed, "deals", run.DealsProcessed,
		"dropped", run.RecordsDropped, "unresolved", run.UnresolvedRefs)
	return run, nil
}

func (p *Pipeline) ingestBatch(ctx context.Context, siteKey, source string, batch normalize.Batch, run *domain.IngestionRun) error {
	run.RecordsDropped = batch.DroppedProducts + batch.DroppedDeals

	autoApprove, err := p.autoApprove(ctx, siteKey, source)
	if err != nil {
		return err
	}

	byExternalID := make(map[string]domain.Product, len(batch.Products))
	for _, ip := range batch.Products {
		stored, err := p.products.UpsertByExternalID(ctx, ip)
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", ip.ExternalID, err)
		}
		byExternalID[stored.ExternalID] = stored
		run.ProductsProcessed++
	}

	now := p.now()
	for _, id := range batch.Deals {
		product, ok := byExternalID[id.ExternalProductID]
		if !ok {
			var getErr error
			product, getErr = p.products.GetByExternalID(ctx, id.ExternalProductID)
			if getErr != nil {
				// Unknown product reference is a counted soft failure, not
				// a run abort.
				run.UnresolvedRefs++
				continue
			}
			byExternalID[product.ExternalID] = product
		}

		deal := domain.Deal{
			ProductID:         product.ID,
			DedupKey:          id.DedupKey(),
			CurrentPriceCents: id.CurrentPriceCents,
			OldPriceCents:     id.OldPriceCents,
			DiscountPercent:   domain.Discount(id.OldPriceCents, id.CurrentPriceCents),
			Currency:          id.Currency,
			StartsAt:          id.StartsAt,
			ExpiresAt:         id.ExpiresAt,
			Status:            domain.ComputeStatus(now, id.ExpiresAt, id.StartsAt),
			Approved:          autoApprove,
		}
		if _, err := p.deals.UpsertByDedupKey(ctx, deal); err != nil {
			return fmt.Errorf("upsert deal %s: %w", deal.DedupKey, err)
		}
		run.DealsProcessed++
	}

	return nil
}

// autoApprove decides whether newly created deals may be approved without
// manual review. Both the auto-publish gate and, for sources outside the
// site's affiliate allowlist, the unaffiliated auto-publish gate must be
// open. An empty allowlist treats every source as affiliated; a site the
// snapshot does not know at all is treated as an allowlist miss.
func (p *Pipeline) autoApprove(ctx context.Context, siteKey, source string) (bool, error) {
	open, err := p.gates.Allowed(ctx, siteKey, domain.CapabilityAutoPublish)
	if err != nil {
		return false, fmt.Errorf("gate check: %w", err)
	}
	if !open {
		return false, nil
	}

	if p.siteSrc == nil {
		return true, nil
	}
	sites, err := p.siteSrc.Sites(ctx)
	if err != nil {
		return false, fmt.Errorf("load sites: %w", err)
	}
	for _, site := range sites {
		if site.Key != siteKey {
			continue
		}
		if len(site.AffiliatePriorities) == 0 {
			return true, nil
		}
		for _, provider := range site.AffiliatePriorities {
			if provider == source {
				return true, nil
			}
		}
		open, err = p.gates.Allowed(ctx, siteKey, domain.CapabilityUnaffiliatedAutoPublish)
		if err != nil {
			return false, fmt.Errorf("gate check: %w", err)
		}
		return open, nil
	}

	// A site absent from the snapshot has no allowlist to satisfy, so it is
	// held to the same bar as an allowlist miss.
	open, err = p.gates.Allowed(ctx, siteKey, domain.CapabilityUnaffiliatedAutoPublish)
	if err != nil {
		return false, fmt.Errorf("gate check: %w", err)
	}
	return open, nil
}

func (p *Pipeline) recordSkipped(ctx context.Context, source, siteKey string) (domain.IngestionRun, error) {
	run, err := p.runs.Open(ctx, domain.IngestionRun{
		Source:    source,
		SiteKey:   siteKey,
		Status:    domain.RunStarted,
		StartedAt: p.now(),
		Metadata:  map[string]string{"skipped": "true"},
	})
	if err != nil {
		return domain.IngestionRun{}, fmt.Errorf("open run: %w", err)
	}
	run.Status = domain.RunSuccess
	p.closeRun(ctx, &run)
	p.info("ingestion skipped, gate closed", "source", source, "site", siteKey)
	return run, nil
}

func (p *Pipeline) closeRun(ctx context.Context, run *domain.IngestionRun) {
	finished := p.now()
	run.FinishedAt = &finished
	if err := p.runs.Close(ctx, *run); err != nil && p.logger != nil {
		p.logger.Error("close run", "run", run.ID, "error", err)
	}
}

func (p *Pipeline) alertFailure(ctx context.Context, run domain.IngestionRun) {
	if p.notifier == nil {
		return
	}
	msg := fmt.Sprintf("ingestion run %d failed (source=%s site=%s): %s",
		run.ID, run.Source, run.SiteKey, run.Error)
	if err := p.notifier.Alert(ctx, msg); err != nil && p.logger != nil {
		p.logger.Warn("alert delivery failed", "error", err)
	}
}

func (p *Pipeline) info(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Info(msg, args...)
	}
}
