package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shashiranjanraj/gpucatalog/app/dedup"
	"github.com/shashiranjanraj/gpucatalog/app/models"
	"github.com/shashiranjanraj/gpucatalog/app/normalizer"
	"github.com/shashiranjanraj/gpucatalog/app/repositories"
	"github.com/shashiranjanraj/gpucatalog/pkg/extract"
	"github.com/shashiranjanraj/gpucatalog/pkg/logger"
	"github.com/shashiranjanraj/gpucatalog/pkg/metrics"
)

// ProductStore is the slice of the product repository the pipeline needs.
type ProductStore interface {
	ExistingURLs(ctx context.Context, urls []string) ([]string, error)
	BulkInsert(ctx context.Context, products []models.Product) error
	UpsertByURL(ctx context.Context, products []models.Product) error
	WithURL(ctx context.Context, afterID uint, limit int) ([]models.Product, error)
	CountWithURL(ctx context.Context) (int64, error)
	UpdatePriceStock(ctx context.Context, id uint, price decimal.Decimal, inStock bool, at time.Time) error
}

// Extractor runs remote extraction jobs.
type Extractor interface {
	Submit(ctx context.Context, urls []string, spec extract.PromptSpec) (string, error)
	AwaitCompletion(ctx context.Context, jobID string, pollInterval, timeout time.Duration) (*extract.Result, error)
	ExtractOne(ctx context.Context, url string, spec extract.PromptSpec, pollInterval, timeout time.Duration) (extract.Record, error)
}

// Archive keeps raw job payloads.
type Archive interface {
	Put(ctx context.Context, path string, content []byte) error
}

// Invalidator drops cached listings after the catalog changes.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// IngestReport is the outcome of one ingest call. Success is true when at
// least one product was stored, even if some records failed to map.
type IngestReport struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message"`
	Added      int      `json:"productsAdded"`
	Duplicates []string `json:"duplicateUrls,omitempty"`
	Errors     []string `json:"errors,omitempty"`
	JobID      string   `json:"jobId,omitempty"`

	// Err is the error that ended the run early, if any.
	Err error `json:"-"`
}

// DuplicateCount is the number of URLs skipped because they already exist.
func (r IngestReport) DuplicateCount() int { return len(r.Duplicates) }

// Partial reports a successful run that still dropped some records.
func (r IngestReport) Partial() bool { return r.Success && len(r.Errors) > 0 }

// IngestOptions tunes an Ingestor. Zero values fall back to defaults.
type IngestOptions struct {
	PollInterval time.Duration
	Timeout      time.Duration
	Archive      Archive
	Cache        Invalidator
	Now          func() time.Time
}

// Ingestor turns retailer URLs into stored products.
type Ingestor struct {
	store     ProductStore
	extractor Extractor
	opts      IngestOptions
}

// NewIngestor wires an Ingestor. store and extractor are required.
func NewIngestor(store ProductStore, extractor Extractor, opts IngestOptions) *Ingestor {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 3 * time.Second
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Ingestor{store: store, extractor: extractor, opts: opts}
}

// Ingest dedups urls against the store, extracts the new ones in a single
// job and bulk-inserts every record that maps cleanly. The extraction
// service is never called when nothing new remains.
func (s *Ingestor) Ingest(ctx context.Context, urls []string) IngestReport {
	log := logger.WithCtx(ctx)

	cleaned, err := CleanURLs(urls)
	if err != nil {
		return failed(err, nil)
	}

	existing, err := s.store.ExistingURLs(ctx, cleaned)
	if err != nil {
		return failed(&StoreError{Op: "check existing urls", Err: err}, nil)
	}
	newURLs, duplicates := dedup.Partition(cleaned, existing)
	metrics.IngestProducts.WithLabelValues("duplicate").Add(float64(len(duplicates)))

	if len(newURLs) == 0 {
		log.Info("ingest: nothing new", "duplicates", len(duplicates))
		return IngestReport{
			Message:    fmt.Sprintf("All %d URL(s) already exist", len(duplicates)),
			Duplicates: duplicates,
			Err:        ErrAllDuplicates,
		}
	}

	result, err := s.extract(ctx, log, newURLs)
	if err != nil {
		metrics.IngestProducts.WithLabelValues("failed").Add(float64(len(newURLs)))
		return failed(err, duplicates)
	}

	products, mapErrs := s.mapResults(log, newURLs, result.Records)
	metrics.IngestProducts.WithLabelValues("mapping_error").Add(float64(len(mapErrs)))

	if len(products) == 0 {
		return IngestReport{
			Message:    "No products could be extracted",
			Duplicates: duplicates,
			Errors:     mapErrs,
			JobID:      result.JobID,
			Err:        ErrNothingMapped,
		}
	}

	added, raced, err := s.insert(ctx, log, products)
	duplicates = append(duplicates, raced...)
	metrics.IngestProducts.WithLabelValues("duplicate").Add(float64(len(raced)))
	if err != nil {
		metrics.IngestProducts.WithLabelValues("failed").Add(float64(len(products) - len(raced)))
		rep := failed(err, duplicates)
		rep.Errors = append(mapErrs, rep.Errors...)
		rep.JobID = result.JobID
		return rep
	}
	if added == 0 {
		return IngestReport{
			Message:    fmt.Sprintf("All %d URL(s) already exist", len(duplicates)),
			Duplicates: duplicates,
			Errors:     mapErrs,
			JobID:      result.JobID,
			Err:        ErrAllDuplicates,
		}
	}
	metrics.IngestProducts.WithLabelValues("added").Add(float64(added))

	s.invalidate(ctx, log)

	log.Info("ingest: finished", "job_id", result.JobID, "added", added,
		"duplicates", len(duplicates), "errors", len(mapErrs))

	return IngestReport{
		Success:    true,
		Message:    fmt.Sprintf("Added %d product(s)", added),
		Added:      added,
		Duplicates: duplicates,
		Errors:     mapErrs,
		JobID:      result.JobID,
	}
}

// Reingest re-extracts urls and overwrites the stored products that share
// their URL, inserting any that are missing.
func (s *Ingestor) Reingest(ctx context.Context, urls []string) IngestReport {
	log := logger.WithCtx(ctx)

	cleaned, err := CleanURLs(urls)
	if err != nil {
		return failed(err, nil)
	}

	result, err := s.extract(ctx, log, cleaned)
	if err != nil {
		return failed(err, nil)
	}

	products, mapErrs := s.mapResults(log, cleaned, result.Records)
	if len(products) == 0 {
		return IngestReport{
			Message: "No products could be extracted",
			Errors:  mapErrs,
			JobID:   result.JobID,
			Err:     ErrNothingMapped,
		}
	}

	if err := s.store.UpsertByURL(ctx, products); err != nil {
		rep := failed(&StoreError{Op: "upsert", Err: err}, nil)
		rep.Errors = append(mapErrs, rep.Errors...)
		rep.JobID = result.JobID
		return rep
	}

	s.invalidate(ctx, log)
	log.Info("reingest: finished", "job_id", result.JobID, "upserted", len(products), "errors", len(mapErrs))

	return IngestReport{
		Success: true,
		Message: fmt.Sprintf("Refreshed %d product(s)", len(products)),
		Added:   len(products),
		Errors:  mapErrs,
		JobID:   result.JobID,
	}
}

func (s *Ingestor) extract(ctx context.Context, log *slog.Logger, urls []string) (*extract.Result, error) {
	jobID, err := s.extractor.Submit(ctx, urls, ProductSpec())
	if err != nil {
		log.Error("ingest: submit failed", "urls", len(urls), "error", err)
		return nil, err
	}

	result, err := s.extractor.AwaitCompletion(ctx, jobID, s.opts.PollInterval, s.opts.Timeout)
	if err != nil {
		log.Error("ingest: extraction failed", "job_id", jobID, "error", err)
		return nil, err
	}
	s.archive(ctx, log, result)
	return result, nil
}

// mapResults pairs each submitted URL with its record and maps it. Records
// that echo a submitted URL are matched on it. The rest fall back to their
// position, and only while every echo seen so far sits at its own slot.
func (s *Ingestor) mapResults(log *slog.Logger, urls []string, records []extract.Record) ([]models.Product, []string) {
	fetchedAt := s.opts.Now().UTC()
	paired := align(urls, records)
	if len(records) > len(urls) {
		log.Warn("ingest: extra records ignored", "submitted", len(urls), "returned", len(records))
	}

	var (
		products []models.Product
		errs     []string
	)
	for i, u := range urls {
		rec, ok := paired[i]
		if !ok {
			errs = append(errs, fmt.Sprintf("no extraction result for %s", u))
			continue
		}
		p, err := normalizer.MapRecord(rec, u, fetchedAt)
		if err != nil {
			mErr := &MappingError{URL: u, Err: err}
			log.Warn("ingest: record skipped", "url", u, "error", err)
			errs = append(errs, mErr.Error())
			continue
		}
		products = append(products, p)
	}
	return products, errs
}

func align(urls []string, records []extract.Record) map[int]extract.Record {
	index := make(map[string]int, len(urls))
	for i, u := range urls {
		index[u] = i
	}

	paired := make(map[int]extract.Record, len(records))
	var unmatched []int
	inOrder := true
	for pos, rec := range records {
		i, ok := index[rec.SourceURL()]
		if !ok {
			unmatched = append(unmatched, pos)
			continue
		}
		if i != pos {
			inOrder = false
		}
		if _, taken := paired[i]; !taken {
			paired[i] = rec
		}
	}

	// A reordered result says nothing about where an unechoed record belongs.
	if !inOrder {
		return paired
	}
	for _, pos := range unmatched {
		if pos >= len(urls) {
			continue
		}
		if _, taken := paired[pos]; !taken {
			paired[pos] = records[pos]
		}
	}
	return paired
}

// insert stores products in one batch. If a concurrent ingest stored some
// of the same URLs first, those are moved to raced and the rest is inserted
// once more.
func (s *Ingestor) insert(ctx context.Context, log *slog.Logger, products []models.Product) (int, []string, error) {
	err := s.store.BulkInsert(ctx, products)
	if err == nil {
		return len(products), nil, nil
	}
	if !errors.Is(err, repositories.ErrDuplicateURL) {
		return 0, nil, &StoreError{Op: "bulk insert", Err: err}
	}

	urls := make([]string, len(products))
	for i, p := range products {
		urls[i] = p.URL
	}
	existing, qErr := s.store.ExistingURLs(ctx, urls)
	if qErr != nil {
		return 0, nil, &StoreError{Op: "bulk insert", Err: &DuplicateError{Err: err}}
	}
	fresh, raced := dedup.Partition(urls, existing)
	log.Warn("ingest: concurrent insert detected", "raced", len(raced), "remaining", len(fresh))

	keep := make(map[string]struct{}, len(fresh))
	for _, u := range fresh {
		keep[u] = struct{}{}
	}
	var remainder []models.Product
	for _, p := range products {
		if _, ok := keep[p.URL]; ok {
			remainder = append(remainder, p)
		}
	}
	if len(remainder) == 0 {
		return 0, raced, nil
	}

	if err := s.store.BulkInsert(ctx, remainder); err != nil {
		if errors.Is(err, repositories.ErrDuplicateURL) {
			err = &DuplicateError{URLs: fresh, Err: err}
		}
		return 0, raced, &StoreError{Op: "bulk insert", Err: err}
	}
	return len(remainder), raced, nil
}

func (s *Ingestor) archive(ctx context.Context, log *slog.Logger, result *extract.Result) {
	if s.opts.Archive == nil || len(result.Raw) == 0 {
		return
	}
	path := "extractions/" + result.JobID + ".json"
	if err := s.opts.Archive.Put(ctx, path, result.Raw); err != nil {
		log.Warn("ingest: archive failed", "job_id", result.JobID, "error", err)
	}
}

func (s *Ingestor) invalidate(ctx context.Context, log *slog.Logger) {
	if s.opts.Cache == nil {
		return
	}
	if err := s.opts.Cache.Invalidate(ctx); err != nil {
		log.Warn("ingest: cache invalidation failed", "error", err)
	}
}

// CleanURLs trims and dedups urls and rejects anything that is not an
// absolute http(s) URL.
func CleanURLs(urls []string) ([]string, error) {
	cleaned := make([]string, 0, len(urls))
	var bad []string
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if err := normalizer.ValidateURL(u); err != nil {
			bad = append(bad, u)
			continue
		}
		cleaned = append(cleaned, u)
	}
	if len(bad) > 0 {
		return nil, &ValidationError{Message: "invalid URL(s): " + strings.Join(bad, ", ")}
	}
	if len(cleaned) == 0 {
		return nil, &ValidationError{Message: "at least one URL is required"}
	}
	return dedup.Unique(cleaned), nil
}

func failed(err error, duplicates []string) IngestReport {
	return IngestReport{
		Message:    err.Error(),
		Duplicates: duplicates,
		Errors:     []string{err.Error()},
		Err:        err,
	}
}
