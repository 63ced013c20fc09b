package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrAllDuplicates means every submitted URL is already stored.
	ErrAllDuplicates = errors.New("all URLs already exist")

	// ErrNothingMapped means extraction finished but no record was usable.
	ErrNothingMapped = errors.New("no products could be extracted")

	// ErrRefreshInProgress means another caller holds the open refresh run.
	ErrRefreshInProgress = errors.New("a price refresh is already running")
)

// ValidationError is bad or empty caller input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// MappingError is one extracted record that could not become a product. It
// is collected, never fatal.
type MappingError struct {
	URL string
	Err error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("%s: %v", e.URL, e.Err)
}

func (e *MappingError) Unwrap() error { return e.Err }

// StoreError is a failed read or write against the product store. It aborts
// the operation in progress.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// DuplicateError is a unique-constraint violation raised by the store after
// the duplicate check passed, i.e. a concurrent ingest won the race.
type DuplicateError struct {
	URLs []string
	Err  error
}

func (e *DuplicateError) Error() string {
	if len(e.URLs) == 0 {
		return "product URL was inserted concurrently"
	}
	return "product URLs were inserted concurrently: " + strings.Join(e.URLs, ", ")
}

func (e *DuplicateError) Unwrap() error { return e.Err }
