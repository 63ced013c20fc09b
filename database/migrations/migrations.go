// Package migrations holds the schema history of the catalog database.
package migrations

import (
	"gorm.io/gorm"

	"github.com/shashiranjanraj/gpucatalog/app/models"
	"github.com/shashiranjanraj/gpucatalog/pkg/migration"
)

// All returns every migration, oldest first.
func All() []migration.Entry {
	return []migration.Entry{
		{Name: "20260101000000_create_products_table", Migration: createProductsTable{}},
		{Name: "20260101000001_create_refresh_runs_table", Migration: createRefreshRunsTable{}},
	}
}

// -------- 0001: products --------

type createProductsTable struct{}

func (createProductsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.Product{})
}

func (createProductsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("products")
}

// -------- 0002: refresh_runs --------

type createRefreshRunsTable struct{}

func (createRefreshRunsTable) Up(db *gorm.DB) error {
	return db.AutoMigrate(&models.RefreshRun{})
}

func (createRefreshRunsTable) Down(db *gorm.DB) error {
	return db.Migrator().DropTable("refresh_runs")
}
