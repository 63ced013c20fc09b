// Package bootstrap wires the application's dependencies from config.
//
// Every command builds one Container and closes it on exit:
//
//	c, err := bootstrap.New(ctx)
//	if err != nil { ... }
//	defer c.Close()
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/gpucatalog/app/controllers"
	appgraphql "github.com/shashiranjanraj/gpucatalog/app/graphql"
	"github.com/shashiranjanraj/gpucatalog/app/repositories"
	"github.com/shashiranjanraj/gpucatalog/app/routes"
	"github.com/shashiranjanraj/gpucatalog/app/services"
	"github.com/shashiranjanraj/gpucatalog/config"
	"github.com/shashiranjanraj/gpucatalog/database/migrations"
	"github.com/shashiranjanraj/gpucatalog/pkg/cache"
	"github.com/shashiranjanraj/gpucatalog/pkg/database"
	"github.com/shashiranjanraj/gpucatalog/pkg/extract"
	gql "github.com/shashiranjanraj/gpucatalog/pkg/graphql"
	"github.com/shashiranjanraj/gpucatalog/pkg/logger"
	"github.com/shashiranjanraj/gpucatalog/pkg/migration"
	"github.com/shashiranjanraj/gpucatalog/pkg/schedule"
	"github.com/shashiranjanraj/gpucatalog/pkg/storage"
)

// RefreshTaskName is the scheduler entry for the nightly price refresh.
const RefreshTaskName = "refresh-prices"

// Container holds the live dependencies of one process.
type Container struct {
	Log *slog.Logger

	DB    *gorm.DB
	Cache *cache.Store
	Disk  storage.Disk

	Extractor *extract.Client
	Products  *repositories.ProductRepository
	Runs      *repositories.RefreshRunRepository

	Catalog   *services.Catalog
	Ingestor  *services.Ingestor
	Refresher *services.Refresher
}

// New loads config and opens every backing service. The database is
// required. Redis and the archive disk are optional: when they cannot be
// reached the container runs without listing cache or payload archive.
func New(ctx context.Context) (*Container, error) {
	if err := config.Load(); err != nil {
		return nil, fmt.Errorf("bootstrap: config: %w", err)
	}
	log := logger.L

	db, err := database.Open(config.DatabaseDriver(), config.DatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}

	store, err := cache.Connect(ctx, config.RedisAddr(), config.RedisPassword())
	if err != nil {
		log.Warn("bootstrap: redis unavailable, listing cache disabled", "error", err)
	}

	disk, err := storage.Open(ctx, storage.Config{
		Driver:    config.StorageDefault(),
		LocalRoot: config.StorageLocalRoot(),
		S3: storage.S3Config{
			Bucket:   config.StorageS3Bucket(),
			Region:   config.StorageS3Region(),
			Key:      config.StorageS3Key(),
			Secret:   config.StorageS3Secret(),
			Endpoint: config.StorageS3Endpoint(),
		},
	})
	if err != nil {
		log.Warn("bootstrap: storage unavailable, extraction payloads will not be archived", "error", err)
		disk = nil
	}

	return Wire(log, db, store, disk, extract.New(config.ExtractAPIURL(), config.ExtractAPIKey(), extract.WithLogger(log))), nil
}

// Wire assembles the repositories and services over already-open backends.
// store and disk may be nil.
func Wire(log *slog.Logger, db *gorm.DB, store *cache.Store, disk storage.Disk, extractor *extract.Client) *Container {
	c := &Container{
		Log:       log,
		DB:        db,
		Cache:     store,
		Disk:      disk,
		Extractor: extractor,
		Products:  repositories.NewProductRepository(db),
		Runs:      repositories.NewRefreshRunRepository(db),
	}
	c.Catalog = services.NewCatalog(c.Products, store, config.CacheTTL())

	ingestOpts := services.IngestOptions{
		PollInterval: config.ExtractPollInterval(),
		Timeout:      config.ExtractTimeout(),
		Cache:        c.Catalog,
	}
	if disk != nil {
		ingestOpts.Archive = disk
	}
	c.Ingestor = services.NewIngestor(c.Products, extractor, ingestOpts)

	c.Refresher = services.NewRefresher(c.Products, c.Runs, extractor, services.RefreshOptions{
		PollInterval: config.ExtractPollInterval(),
		Timeout:      config.ExtractTimeout(),
		Cache:        c.Catalog,
	})
	return c
}

// Migrator returns a migration runner over the container's database.
func (c *Container) Migrator() *migration.Runner {
	return migration.New(c.DB, migrations.All()).WithLogger(c.Log)
}

// Handlers builds the controllers and GraphQL endpoint for the route table.
func (c *Container) Handlers() (routes.Handlers, error) {
	schema, err := appgraphql.NewSchema(c.Catalog)
	if err != nil {
		return routes.Handlers{}, fmt.Errorf("bootstrap: graphql schema: %w", err)
	}
	return routes.Handlers{
		Products: controllers.NewProductController(c.Catalog),
		Ingest:   controllers.NewIngestController(c.Ingestor, config.IngestTimeout()),
		Cron:     controllers.NewCronController(c.Refresher),
		Health: controllers.NewHealthController(map[string]controllers.Check{
			"database": c.pingDB,
			"cache":    c.Cache.Ping,
		}).WithRefreshRuns(c.Runs),
		GraphQL:    gql.Handler(schema),
		CronSecret: config.CronSecret,
	}, nil
}

// Scheduler registers the recurring jobs on a new scheduler.
func (c *Container) Scheduler() (*schedule.Scheduler, error) {
	s := schedule.New(c.Log)
	err := s.Cron(config.RefreshSchedule()).
		Name(RefreshTaskName).
		WithoutOverlapping().
		Run(func(ctx context.Context) {
			rep, err := c.Refresher.RefreshAll(ctx)
			if errors.Is(err, services.ErrRefreshInProgress) {
				c.Log.Info("schedule: price refresh already running elsewhere", "run_id", rep.RunID)
				return
			}
			if err != nil {
				c.Log.Error("schedule: price refresh aborted", "run_id", rep.RunID, "error", err)
				return
			}
			c.Log.Info("schedule: price refresh done",
				"run_id", rep.RunID, "updated", rep.Updated, "total", rep.Total, "errors", len(rep.Errors))
		})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (c *Container) pingDB(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database pool and the Redis client.
func (c *Container) Close() error {
	return errors.Join(database.Close(c.DB), c.Cache.Close())
}
