package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Canonical cooler types.
const (
	CoolerDual   = "Dual"
	CoolerTriple = "Triple"
)

// DefaultFamily is stored when the extractor could not resolve a product line.
const DefaultFamily = "Base"

// Product is one GPU listing. URL is the natural key.
type Product struct {
	ID              uint            `gorm:"primaryKey"                              json:"id"`
	URL             string          `gorm:"size:2048;not null;uniqueIndex"         json:"url"`
	Brand           string          `gorm:"size:100;not null;index"                json:"brand"`
	ProductTitle    string          `gorm:"size:512;not null"                      json:"product_title"`
	Family          string          `gorm:"size:100;not null;default:Base;index"   json:"family"`
	Variant         string          `gorm:"size:100"                               json:"variant"`
	MemorySizeGB    int             `gorm:"not null;default:0;index"               json:"memory_size_gb"`
	CoolerType      string          `gorm:"size:50;index"                          json:"cooler_type"`
	SpecialFeatures string          `gorm:"type:text;not null;default:None"        json:"special_features"`
	Price           decimal.Decimal `gorm:"type:decimal(10,2);not null"            json:"price"`
	InStock         bool            `gorm:"not null;default:false;index"           json:"in_stock"`
	IsOC            bool            `gorm:"not null;default:false"                 json:"is_oc"`
	Retailer        string          `gorm:"size:255;not null;index"                json:"retailer"`
	RawData         datatypes.JSON  `json:"-"`
	FetchedAt       time.Time       `gorm:"not null"                               json:"fetched_at"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}
