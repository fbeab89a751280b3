package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound re-exports the GORM sentinel so callers outside the storage
// layer don't need a gorm import to test for it.
var ErrNotFound = gorm.ErrRecordNotFound

// IsUniqueViolation reports whether err is a uniqueness constraint violation
// from any supported driver. This is the last line of defense behind the
// application-level duplicate checks.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	// SQLite and Postgres phrase constraint errors differently
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

// IsNotFound reports whether err means the record does not exist
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
