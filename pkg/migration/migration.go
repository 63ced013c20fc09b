// Package migration runs and tracks ordered schema migrations.
//
//	runner := migration.New(db, migrations.All())
//	err := runner.Run(ctx)        // apply everything pending as one batch
//	err  = runner.Rollback(ctx)   // undo the most recent batch
package migration

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/gpucatalog/pkg/logger"
)

// Migration is the interface every migration must implement.
type Migration interface {
	// Up applies the migration.
	Up(db *gorm.DB) error
	// Down reverses the migration.
	Down(db *gorm.DB) error
}

// Entry names a migration. Names are timestamp-prefixed so they sort in
// the order they must run.
type Entry struct {
	Name      string
	Migration Migration
}

// Status is one row of Runner.Status.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

// migrationRecord is the GORM model stored in the tracking table.
type migrationRecord struct {
	ID    uint      `gorm:"primaryKey;autoIncrement"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"autoCreateTime"`
}

func (migrationRecord) TableName() string { return "schema_migrations" }

// Runner executes and tracks migrations.
type Runner struct {
	db      *gorm.DB
	entries []Entry
	log     *slog.Logger
}

// New creates a Runner for entries backed by db.
func New(db *gorm.DB, entries []Entry) *Runner {
	sorted := make([]Entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &Runner{db: db, entries: sorted, log: logger.L}
}

// WithLogger replaces the runner's logger.
func (r *Runner) WithLogger(l *slog.Logger) *Runner {
	r.log = l
	return r
}

func (r *Runner) ensureTable(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&migrationRecord{}); err != nil {
		return fmt.Errorf("migration: ensure table: %w", err)
	}
	return nil
}

func (r *Runner) ran(ctx context.Context) (map[string]migrationRecord, error) {
	var recs []migrationRecord
	if err := r.db.WithContext(ctx).Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("migration: load history: %w", err)
	}
	out := make(map[string]migrationRecord, len(recs))
	for _, rec := range recs {
		out[rec.Name] = rec
	}
	return out, nil
}

// Pending returns the migrations that have not been run yet.
func (r *Runner) Pending(ctx context.Context) ([]Entry, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	done, err := r.ran(ctx)
	if err != nil {
		return nil, err
	}
	var pending []Entry
	for _, e := range r.entries {
		if _, ok := done[e.Name]; !ok {
			pending = append(pending, e)
		}
	}
	return pending, nil
}

// Run executes all pending migrations as a single batch and returns the
// names it applied.
func (r *Runner) Run(ctx context.Context) ([]string, error) {
	pending, err := r.Pending(ctx)
	if err != nil {
		return nil, err
	}
	if len(pending) == 0 {
		r.log.Info("migration: nothing to migrate")
		return nil, nil
	}

	batch, err := r.lastBatch(ctx)
	if err != nil {
		return nil, err
	}
	batch++

	applied := make([]string, 0, len(pending))
	for _, e := range pending {
		r.log.Info("migration: running", "name", e.Name, "batch", batch)

		if err := e.Migration.Up(r.db.WithContext(ctx)); err != nil {
			return applied, fmt.Errorf("migration: %s up: %w", e.Name, err)
		}
		if err := r.db.WithContext(ctx).Create(&migrationRecord{Name: e.Name, Batch: batch}).Error; err != nil {
			return applied, fmt.Errorf("migration: record %s: %w", e.Name, err)
		}
		applied = append(applied, e.Name)
	}

	r.log.Info("migration: done", "ran", len(applied), "batch", batch)
	return applied, nil
}

// Rollback reverses every migration in the most recent batch, newest first,
// and returns the names it rolled back.
func (r *Runner) Rollback(ctx context.Context) ([]string, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	batch, err := r.lastBatch(ctx)
	if err != nil {
		return nil, err
	}
	if batch == 0 {
		r.log.Info("migration: nothing to roll back")
		return nil, nil
	}

	var recs []migrationRecord
	if err := r.db.WithContext(ctx).Where("batch = ?", batch).Order("id desc").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("migration: load batch %d: %w", batch, err)
	}

	byName := make(map[string]Migration, len(r.entries))
	for _, e := range r.entries {
		byName[e.Name] = e.Migration
	}

	var rolled []string
	for _, rec := range recs {
		m, ok := byName[rec.Name]
		if !ok {
			return rolled, fmt.Errorf("migration: cannot roll back %s: not registered", rec.Name)
		}

		r.log.Info("migration: rolling back", "name", rec.Name, "batch", batch)
		if err := m.Down(r.db.WithContext(ctx)); err != nil {
			return rolled, fmt.Errorf("migration: %s down: %w", rec.Name, err)
		}
		if err := r.db.WithContext(ctx).Delete(&rec).Error; err != nil {
			return rolled, fmt.Errorf("migration: forget %s: %w", rec.Name, err)
		}
		rolled = append(rolled, rec.Name)
	}
	return rolled, nil
}

// Status lists every known migration and whether it has run.
func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	if err := r.ensureTable(ctx); err != nil {
		return nil, err
	}
	done, err := r.ran(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Status, 0, len(r.entries))
	for _, e := range r.entries {
		rec, ok := done[e.Name]
		out = append(out, Status{Name: e.Name, Ran: ok, Batch: rec.Batch})
	}
	return out, nil
}

func (r *Runner) lastBatch(ctx context.Context) (int, error) {
	var last struct{ Max int }
	err := r.db.WithContext(ctx).
		Model(&migrationRecord{}).
		Select("COALESCE(MAX(batch), 0) AS max").
		Scan(&last).Error
	if err != nil {
		return 0, fmt.Errorf("migration: last batch: %w", err)
	}
	return last.Max, nil
}
