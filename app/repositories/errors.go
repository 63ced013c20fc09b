package repositories

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup by id matches nothing.
	ErrNotFound = errors.New("repositories: record not found")

	// ErrDuplicateURL wraps a unique-constraint violation on products.url.
	ErrDuplicateURL = errors.New("repositories: product url already exists")
)

// isDuplicateKey recognises a unique violation across the supported drivers,
// whether or not the dialector translated it.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || // sqlite
		strings.Contains(msg, "Duplicate entry") || // mysql
		strings.Contains(msg, "duplicate key") // sqlserver, untranslated postgres
}
