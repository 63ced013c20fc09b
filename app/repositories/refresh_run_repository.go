package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/gpucatalog/app/models"
)

// RefreshRunRepository persists price refresh checkpoints.
type RefreshRunRepository struct {
	db *gorm.DB
}

func NewRefreshRunRepository(db *gorm.DB) *RefreshRunRepository {
	return &RefreshRunRepository{db: db}
}

// Open returns the most recent unfinished run, or nil when there is none.
func (r *RefreshRunRepository) Open(ctx context.Context) (*models.RefreshRun, error) {
	var run models.RefreshRun
	err := r.db.WithContext(ctx).
		Where("finished_at IS NULL").
		Order("started_at desc").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repositories: open refresh run: %w", err)
	}
	return &run, nil
}

// Start records a new run.
func (r *RefreshRunRepository) Start(ctx context.Context, run *models.RefreshRun) error {
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return fmt.Errorf("repositories: start refresh run: %w", err)
	}
	return nil
}

// Advance saves the run's cursor and counters.
func (r *RefreshRunRepository) Advance(ctx context.Context, run *models.RefreshRun) error {
	err := r.db.WithContext(ctx).
		Model(run).
		Select("last_product_id", "total", "updated", "failed", "updated_at").
		Updates(run).Error
	if err != nil {
		return fmt.Errorf("repositories: advance refresh run %s: %w", run.ID, err)
	}
	return nil
}

// Finish closes the run.
func (r *RefreshRunRepository) Finish(ctx context.Context, run *models.RefreshRun, at time.Time) error {
	run.FinishedAt = &at
	err := r.db.WithContext(ctx).
		Model(run).
		Select("last_product_id", "total", "updated", "failed", "finished_at", "updated_at").
		Updates(run).Error
	if err != nil {
		return fmt.Errorf("repositories: finish refresh run %s: %w", run.ID, err)
	}
	return nil
}

// Release clears the run's checkpoint time so the next caller can resume it
// straight away instead of waiting out the lease.
func (r *RefreshRunRepository) Release(ctx context.Context, run *models.RefreshRun) error {
	err := r.db.WithContext(ctx).
		Model(&models.RefreshRun{}).
		Where("id = ?", run.ID).
		UpdateColumn("updated_at", time.Time{}).Error
	if err != nil {
		return fmt.Errorf("repositories: release refresh run %s: %w", run.ID, err)
	}
	run.UpdatedAt = time.Time{}
	return nil
}

// Latest returns the most recently started run, finished or not.
func (r *RefreshRunRepository) Latest(ctx context.Context) (*models.RefreshRun, error) {
	var run models.RefreshRun
	err := r.db.WithContext(ctx).Order("started_at desc").First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("repositories: latest refresh run: %w", err)
	}
	return &run, nil
}
