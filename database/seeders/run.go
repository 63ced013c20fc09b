// Package seeders provides a registry of database seed functions.
//
// Define a seeder in any file in this package:
//
//	func init() {
//	    Register("gpus", SeedGPUs)
//	}
//
// Then run it with: gpucatalog seed
package seeders

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"gorm.io/gorm"
)

// SeederFunc is the signature for a seed function.
type SeederFunc func(ctx context.Context, db *gorm.DB) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder to the global registry.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// Names lists the registered seeders in run order.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// Invalidator retires cached catalog listings.
type Invalidator interface {
	Invalidate(ctx context.Context) error
}

// RunAll executes every registered seeder in registration order and stops
// on the first error. It returns the names of the seeders that completed.
// When any seeder ran, cache (which may be nil) is invalidated so listings
// pick up the seeded rows.
func RunAll(ctx context.Context, db *gorm.DB, cache Invalidator, log *slog.Logger) ([]string, error) {
	mu.Lock()
	current := make([]seederEntry, len(entries))
	copy(current, entries)
	mu.Unlock()

	ran := make([]string, 0, len(current))
	defer func() {
		if len(ran) == 0 || cache == nil {
			return
		}
		if err := cache.Invalidate(ctx); err != nil {
			log.Warn("seeders: cache invalidation failed", "error", err)
		}
	}()
	for _, e := range current {
		log.Info("seeders: running", "seeder", e.name)
		if err := e.fn(ctx, db); err != nil {
			return ran, fmt.Errorf("seeder %q: %w", e.name, err)
		}
		ran = append(ran, e.name)
	}
	return ran, nil
}
