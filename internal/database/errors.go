package database

import (
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ErrNotFound is wrapped by every repository lookup that matches no row.
var ErrNotFound = errors.New("record not found")

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation pq.ErrorCode = "23505"

// IsNotFound reports whether err means the looked-up row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// IsUniqueViolation reports whether err was caused by a unique constraint.
// lib/pq errors are not translated by gorm, so both shapes are checked.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
