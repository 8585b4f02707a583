package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bradjohnson79/trendsinusa-sub002/internal/domain"
	"github.com/bradjohnson79/trendsinusa-sub002/internal/ports"
)

// SourceBinding ties one feed source to the site it ingests for.
type SourceBinding struct {
	Source  string
	SiteKey string
}

// JobIntervals configures how often each recurring job fires.
type JobIntervals struct {
	Ingest time.Duration
	Sweep  time.Duration
	Retag  time.Duration
}

// Jobs wires the recurring drivers with the pipeline, sweep, and router.
// The three jobs are independent and safe to interleave: every write is an
// idempotent keyed upsert or a conditional compare-then-write.
type Jobs struct {
	pipeline *Pipeline
	sweep    *ExpirySweep
	router   *SiteRouter
	bindings []SourceBinding

	drivers   []ports.Scheduler
	newDriver func() ports.Scheduler
	intervals JobIntervals
	logger    *slog.Logger
}

// NewJobs returns the recurring-job coordinator. newDriver builds one
// scheduler driver per job.
func NewJobs(pipeline *Pipeline, sweep *ExpirySweep, router *SiteRouter,
	bindings []SourceBinding, intervals JobIntervals,
	newDriver func() ports.Scheduler, logger *slog.Logger) *Jobs {
	return &Jobs{
		pipeline:  pipeline,
		sweep:     sweep,
		router:    router,
		bindings:  bindings,
		intervals: intervals,
		newDriver: newDriver,
		logger:    logger,
	}
}

// Start launches the ingest, sweep, and retag schedules.
func (j *Jobs) Start(ctx context.Context) error {
	if j.newDriver == nil {
		return nil
	}

	if j.pipeline != nil && len(j.bindings) > 0 && j.intervals.Ingest > 0 {
		if err := j.startDriver(ctx, j.intervals.Ingest, j.ingestAll); err != nil {
			return err
		}
	}
	if j.sweep != nil && j.intervals.Sweep > 0 {
		if err := j.startDriver(ctx, j.intervals.Sweep, j.runSweep); err != nil {
			return err
		}
	}
	if j.router != nil && j.intervals.Retag > 0 {
		if err := j.startDriver(ctx, j.intervals.Retag, j.runRetag); err != nil {
			return err
		}
	}
	return nil
}

// Stop tears down every started driver.
func (j *Jobs) Stop(ctx context.Context) error {
	var firstErr error
	for _, driver := range j.drivers {
		if err := driver.Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	j.drivers = nil
	return firstErr
}

func (j *Jobs) startDriver(ctx context.Context, interval time.Duration, job func(context.Context)) error {
	driver := j.newDriver()
	if err := driver.Start(ctx, interval, func(time.Time) { job(ctx) }); err != nil {
		return err
	}
	j.drivers = append(j.drivers, driver)
	return nil
}

func (j *Jobs) ingestAll(ctx context.Context) {
	for _, binding := range j.bindings {
		_, err := j.pipeline.RunIngestion(ctx, binding.Source, binding.SiteKey)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrRunInProgress):
			j.warn("ingestion still running", "source", binding.Source, "site", binding.SiteKey)
		default:
			j.warn("ingestion failed", "source", binding.Source, "site", binding.SiteKey, "error", err)
		}
	}
}

func (j *Jobs) runSweep(ctx context.Context) {
	if _, err := j.sweep.Run(ctx); err != nil {
		j.warn("expiry sweep failed", "error", err)
	}
}

func (j *Jobs) runRetag(ctx context.Context) {
	if _, err := j.router.RecomputeProductSiteTags(ctx); err != nil {
		j.warn("site retag failed", "error", err)
	}
}

func (j *Jobs) warn(msg string, args ...any) {
	if j.logger != nil {
		j.logger.Warn(msg, args...)
	}
}
