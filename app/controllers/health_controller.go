package controllers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/shashiranjanraj/gpucatalog/app/models"
	"github.com/shashiranjanraj/gpucatalog/app/repositories"
	"github.com/shashiranjanraj/gpucatalog/pkg/ctx"
	"github.com/shashiranjanraj/gpucatalog/pkg/logger"
)

// Check probes one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// RunReader looks up the latest price refresh run.
type RunReader interface {
	Latest(ctx context.Context) (*models.RefreshRun, error)
}

type HealthController struct {
	checks map[string]Check
	runs   RunReader
}

func NewHealthController(checks map[string]Check) *HealthController {
	return &HealthController{checks: checks}
}

// WithRefreshRuns adds the latest refresh run to the health body.
func (hc *HealthController) WithRefreshRuns(runs RunReader) *HealthController {
	hc.runs = runs
	return hc
}

type healthResponse struct {
	Status      string            `json:"status"`
	Checks      map[string]string `json:"checks,omitempty"`
	LastRefresh *refreshStatus    `json:"lastRefresh,omitempty"`
}

type refreshStatus struct {
	RunID      string     `json:"runId"`
	Running    bool       `json:"running"`
	StartedAt  time.Time  `json:"startedAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
	Updated    int        `json:"updated"`
	Failed     int        `json:"failed"`
	Total      int        `json:"total"`
}

// Show reports "ok" when every check passes and 503 otherwise. GET /health
func (hc *HealthController) Show(c *ctx.Context) {
	probeCtx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(hc.checks))
	for name := range hc.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	body := healthResponse{Status: "ok", Checks: make(map[string]string, len(names))}
	for _, name := range names {
		if err := hc.checks[name](probeCtx); err != nil {
			body.Status = "degraded"
			body.Checks[name] = err.Error()
			continue
		}
		body.Checks[name] = "ok"
	}

	body.LastRefresh = hc.lastRefresh(probeCtx)

	code := http.StatusOK
	if body.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, body)
}

// lastRefresh is informational only and never degrades the status.
func (hc *HealthController) lastRefresh(ctx context.Context) *refreshStatus {
	if hc.runs == nil {
		return nil
	}
	run, err := hc.runs.Latest(ctx)
	if err != nil {
		if !errors.Is(err, repositories.ErrNotFound) {
			logger.WithCtx(ctx).Warn("health: latest refresh run", "error", err)
		}
		return nil
	}
	return &refreshStatus{
		RunID:      run.ID,
		Running:    !run.Finished(),
		StartedAt:  run.StartedAt,
		FinishedAt: run.FinishedAt,
		Updated:    run.Updated,
		Failed:     run.Failed,
		Total:      run.Total,
	}
}
