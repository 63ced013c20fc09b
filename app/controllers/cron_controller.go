package controllers

import (
	"context"
	"errors"
	"net/http"

	"github.com/shashiranjanraj/gpucatalog/app/services"
	"github.com/shashiranjanraj/gpucatalog/pkg/ctx"
	"github.com/shashiranjanraj/gpucatalog/pkg/logger"
)

// PriceRefresher re-scrapes prices for the whole catalog.
type PriceRefresher interface {
	RefreshAll(ctx context.Context) (services.RefreshReport, error)
}

// CronController serves the endpoints an external scheduler calls. Routes
// are expected to sit behind middleware.BearerToken.
type CronController struct {
	refresher PriceRefresher
}

func NewCronController(refresher PriceRefresher) *CronController {
	return &CronController{refresher: refresher}
}

type refreshResponse struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	RunID   string   `json:"runId,omitempty"`
	Updated int      `json:"updated"`
	Total   int      `json:"total"`
	Errors  []string `json:"errors,omitempty"`
	Resumed bool     `json:"resumed,omitempty"`
}

// RefreshPrices runs one refresh pass. GET|POST /api/cron/refresh-prices
// Answers 409 while another caller is mid-run.
func (cc *CronController) RefreshPrices(c *ctx.Context) {
	rep, err := cc.refresher.RefreshAll(c.Context())

	body := refreshResponse{
		Success: err == nil,
		RunID:   rep.RunID,
		Updated: rep.Updated,
		Total:   rep.Total,
		Errors:  rep.Errors,
		Resumed: rep.Resumed,
	}
	if errors.Is(err, services.ErrRefreshInProgress) {
		body.Message = err.Error()
		c.JSON(http.StatusConflict, body)
		return
	}
	if err != nil {
		logger.WithCtx(c.Context()).Error("cron: refresh failed", "run_id", rep.RunID, "error", err)
		body.Message = err.Error()
		c.JSON(http.StatusInternalServerError, body)
		return
	}
	c.JSON(http.StatusOK, body)
}
