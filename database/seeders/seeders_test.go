package seeders_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/gpucatalog/app/models"
	"github.com/shashiranjanraj/gpucatalog/database/migrations"
	"github.com/shashiranjanraj/gpucatalog/database/seeders"
	"github.com/shashiranjanraj/gpucatalog/pkg/database"
	"github.com/shashiranjanraj/gpucatalog/pkg/logger"
	"github.com/shashiranjanraj/gpucatalog/pkg/migration"
)

type countingCache struct{ calls int }

func (c *countingCache) Invalidate(context.Context) error {
	c.calls++
	return nil
}

func TestRunAllIsRepeatable(t *testing.T) {
	ctx := context.Background()
	db, err := database.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	_, err = migration.New(db, migrations.All()).WithLogger(logger.Discard()).Run(ctx)
	require.NoError(t, err)

	assert.Contains(t, seeders.Names(), "gpus")

	cache := &countingCache{}
	for i := 0; i < 2; i++ {
		ran, err := seeders.RunAll(ctx, db, cache, logger.Discard())
		require.NoError(t, err)
		assert.Equal(t, seeders.Names(), ran)
	}
	assert.Equal(t, 2, cache.calls, "each seeding retires cached listings")

	var products []models.Product
	require.NoError(t, db.Order("id").Find(&products).Error)
	require.Len(t, products, 3)

	asus := products[0]
	assert.Equal(t, "ASUS", asus.Brand)
	assert.Equal(t, models.CoolerTriple, asus.CoolerType)
	assert.Equal(t, 16, asus.MemorySizeGB)
	assert.Equal(t, "849.99", asus.Price.StringFixed(2))
	assert.True(t, asus.InStock)
	assert.Equal(t, "newegg.com", asus.Retailer)

	zotac := products[2]
	assert.Equal(t, models.DefaultFamily, zotac.Family)
	assert.Equal(t, models.CoolerDual, zotac.CoolerType)
	assert.False(t, zotac.InStock)
}
