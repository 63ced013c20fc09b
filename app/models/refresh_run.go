package models

import "time"

// RefreshRun is the checkpoint of one price refresh pass. LastProductID is the
// cursor: products with an id at or below it have been processed.
type RefreshRun struct {
	ID            string     `gorm:"primaryKey;size:36"     json:"id"`
	LastProductID uint       `gorm:"not null;default:0"     json:"last_product_id"`
	Total         int        `gorm:"not null;default:0"     json:"total"`
	Updated       int        `gorm:"not null;default:0"     json:"updated"`
	Failed        int        `gorm:"not null;default:0"     json:"failed"`
	StartedAt     time.Time  `gorm:"not null"               json:"started_at"`
	FinishedAt    *time.Time `gorm:"index"                  json:"finished_at,omitempty"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Finished reports whether the run completed its pass.
func (r RefreshRun) Finished() bool { return r.FinishedAt != nil }
