package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/shashiranjanraj/gpucatalog/app/models"
	"github.com/shashiranjanraj/gpucatalog/app/normalizer"
	"github.com/shashiranjanraj/gpucatalog/pkg/logger"
	"github.com/shashiranjanraj/gpucatalog/pkg/metrics"
)

// RunStore persists refresh checkpoints.
type RunStore interface {
	Open(ctx context.Context) (*models.RefreshRun, error)
	Start(ctx context.Context, run *models.RefreshRun) error
	Advance(ctx context.Context, run *models.RefreshRun) error
	Finish(ctx context.Context, run *models.RefreshRun, at time.Time) error
	Release(ctx context.Context, run *models.RefreshRun) error
}

// RefreshReport summarises a refresh pass. Updated and Total count the whole
// run, including work done before a resume; Errors only covers this call.
type RefreshReport struct {
	RunID   string   `json:"runId"`
	Updated int      `json:"updated"`
	Total   int      `json:"total"`
	Errors  []string `json:"errors,omitempty"`
	Resumed bool     `json:"resumed,omitempty"`
}

// RefreshOptions tunes a Refresher. Zero values fall back to defaults.
type RefreshOptions struct {
	PollInterval time.Duration
	Timeout      time.Duration
	BatchSize    int
	// Lease is how long an open run counts as held after its last
	// checkpoint. Defaults to Timeout plus one minute.
	Lease        time.Duration
	Cache        Invalidator
	Now          func() time.Time
	NewID        func() string
}

// Refresher re-scrapes stored products one at a time and writes back price
// and stock when they changed.
type Refresher struct {
	store     ProductStore
	runs      RunStore
	extractor Extractor
	opts      RefreshOptions
}

// NewRefresher wires a Refresher.
func NewRefresher(store ProductStore, runs RunStore, extractor Extractor, opts RefreshOptions) *Refresher {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 100
	}
	if opts.Lease <= 0 {
		opts.Lease = opts.Timeout + time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Refresher{store: store, runs: runs, extractor: extractor, opts: opts}
}

// RefreshAll walks every product with a URL in id order. A failure on one
// product is recorded and the walk continues. The cursor is checkpointed
// after each product, so an interrupted run resumes where it stopped on the
// next call. An open run checkpointed within the lease belongs to another
// caller and yields ErrRefreshInProgress; one that went quiet longer is taken
// over. The returned error is only set when the walk itself could not
// continue.
func (r *Refresher) RefreshAll(ctx context.Context) (RefreshReport, error) {
	log := logger.WithCtx(ctx)

	run, err := r.runs.Open(ctx)
	if err != nil {
		return RefreshReport{}, &StoreError{Op: "open refresh run", Err: err}
	}

	if run != nil && r.held(run) {
		log.Info("refresh: skipped, run in progress", "run_id", run.ID, "checkpoint", run.UpdatedAt)
		return RefreshReport{RunID: run.ID, Updated: run.Updated, Total: run.Total}, ErrRefreshInProgress
	}

	rep := RefreshReport{Resumed: run != nil}
	if run == nil {
		total, err := r.store.CountWithURL(ctx)
		if err != nil {
			return rep, &StoreError{Op: "count products", Err: err}
		}
		run = &models.RefreshRun{
			ID:        r.opts.NewID(),
			Total:     int(total),
			StartedAt: r.opts.Now().UTC(),
		}
		if err := r.runs.Start(ctx, run); err != nil {
			return rep, &StoreError{Op: "start refresh run", Err: err}
		}
		log.Info("refresh: started", "run_id", run.ID, "total", run.Total)
	} else {
		log.Info("refresh: resuming", "run_id", run.ID, "after_id", run.LastProductID)
	}
	rep.RunID = run.ID
	defer func() {
		if run.Finished() {
			return
		}
		if err := r.runs.Release(context.WithoutCancel(ctx), run); err != nil {
			log.Warn("refresh: releasing run failed", "run_id", run.ID, "error", err)
		}
	}()

	changedAny := false
	for {
		batch, err := r.store.WithURL(ctx, run.LastProductID, r.opts.BatchSize)
		if err != nil {
			rep.Updated, rep.Total = run.Updated, run.Total
			return rep, &StoreError{Op: "load products", Err: err}
		}
		if len(batch) == 0 {
			break
		}

		for _, p := range batch {
			if err := ctx.Err(); err != nil {
				rep.Updated, rep.Total = run.Updated, run.Total
				return rep, fmt.Errorf("refresh: run %s interrupted: %w", run.ID, err)
			}

			changed, err := r.refreshOne(ctx, p)
			switch {
			case err != nil:
				run.Failed++
				rep.Errors = append(rep.Errors, fmt.Sprintf("%s: %v", p.URL, err))
				metrics.RefreshRecords.WithLabelValues("failed").Inc()
				log.Warn("refresh: product failed", "id", p.ID, "url", p.URL, "error", err)
			case changed:
				run.Updated++
				changedAny = true
				metrics.RefreshRecords.WithLabelValues("updated").Inc()
			default:
				metrics.RefreshRecords.WithLabelValues("unchanged").Inc()
			}

			run.LastProductID = p.ID
			if err := r.runs.Advance(ctx, run); err != nil {
				log.Warn("refresh: checkpoint failed", "run_id", run.ID, "error", err)
			}
		}
	}

	if err := r.runs.Finish(ctx, run, r.opts.Now().UTC()); err != nil {
		log.Warn("refresh: closing run failed", "run_id", run.ID, "error", err)
	}
	if changedAny && r.opts.Cache != nil {
		if err := r.opts.Cache.Invalidate(ctx); err != nil {
			log.Warn("refresh: cache invalidation failed", "error", err)
		}
	}

	log.Info("refresh: finished", "run_id", run.ID, "updated", run.Updated,
		"total", run.Total, "failed", run.Failed)

	rep.Updated, rep.Total = run.Updated, run.Total
	return rep, nil
}

func (r *Refresher) held(run *models.RefreshRun) bool {
	if run.UpdatedAt.IsZero() {
		return false
	}
	return r.opts.Now().Sub(run.UpdatedAt) < r.opts.Lease
}

// refreshOne scrapes p and updates it only when price or stock moved.
func (r *Refresher) refreshOne(ctx context.Context, p models.Product) (bool, error) {
	rec, err := r.extractor.ExtractOne(ctx, p.URL, PriceSpec(), r.opts.PollInterval, r.opts.Timeout)
	if err != nil {
		return false, err
	}
	quote, err := normalizer.MapPrice(rec)
	if err != nil {
		return false, &MappingError{URL: p.URL, Err: err}
	}

	if quote.Price.Equal(p.Price) && quote.InStock == p.InStock {
		return false, nil
	}

	if err := r.store.UpdatePriceStock(ctx, p.ID, quote.Price, quote.InStock, r.opts.Now().UTC()); err != nil {
		return false, &StoreError{Op: "update price", Err: err}
	}
	return true, nil
}
