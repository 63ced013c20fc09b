package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/shashiranjanraj/gpucatalog/app/services"
	"github.com/shashiranjanraj/gpucatalog/pkg/ctx"
)

// Ingester adds products from retailer URLs.
type Ingester interface {
	Ingest(ctx context.Context, urls []string) services.IngestReport
	Reingest(ctx context.Context, urls []string) services.IngestReport
}

type IngestController struct {
	ingester Ingester
	timeout  time.Duration
}

// NewIngestController bounds each request by timeout. The remote extraction
// job is not cancelled when it fires.
func NewIngestController(ingester Ingester, timeout time.Duration) *IngestController {
	return &IngestController{ingester: ingester, timeout: timeout}
}

type ingestInput struct {
	URLs []string `json:"urls" validate:"required,min=1,max=100"`
}

type ingestResponse struct {
	Success        bool     `json:"success"`
	Message        string   `json:"message"`
	ProductsAdded  int      `json:"productsAdded"`
	DuplicateCount int      `json:"duplicateCount,omitempty"`
	DuplicateURLs  []string `json:"duplicateUrls,omitempty"`
	Errors         []string `json:"errors,omitempty"`
	JobID          string   `json:"jobId,omitempty"`
}

// Ingest extracts and stores new products. POST /api/products/ingest
func (ic *IngestController) Ingest(c *ctx.Context) {
	ic.run(c, ic.ingester.Ingest)
}

// Reingest re-extracts stored products and overwrites them by URL.
// POST /api/products/reingest
func (ic *IngestController) Reingest(c *ctx.Context) {
	ic.run(c, ic.ingester.Reingest)
}

func (ic *IngestController) run(c *ctx.Context, fn func(context.Context, []string) services.IngestReport) {
	var input ingestInput
	if !c.BindJSON(&input) {
		return
	}

	reqCtx := c.Context()
	if ic.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(reqCtx, ic.timeout)
		defer cancel()
	}

	rep := fn(reqCtx, input.URLs)
	c.JSON(IngestStatus(rep), ingestResponse{
		Success:        rep.Success,
		Message:        rep.Message,
		ProductsAdded:  rep.Added,
		DuplicateCount: rep.DuplicateCount(),
		DuplicateURLs:  rep.Duplicates,
		Errors:         rep.Errors,
		JobID:          rep.JobID,
	})
}

// IngestStatus maps an ingest outcome to its HTTP status.
func IngestStatus(rep services.IngestReport) int {
	if rep.Success {
		if rep.Partial() {
			return http.StatusMultiStatus
		}
		return http.StatusOK
	}

	var vErr *services.ValidationError
	switch {
	case errors.As(rep.Err, &vErr), errors.Is(rep.Err, services.ErrAllDuplicates):
		return http.StatusBadRequest
	case errors.Is(rep.Err, services.ErrNothingMapped):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
