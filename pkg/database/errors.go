package database

import (
	"database/sql"
	"errors"

	"github.com/lib/pq"
)

const uniqueViolationCode = pq.ErrorCode("23505")

// IsNotFound reports whether err is the driver's empty-result error.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation. The clone engine relies on this to tell a concurrent slug or
// payment race apart from a generic failure.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolationCode
	}
	return false
}

// UniqueViolationConstraint returns the violated constraint name, or "" when
// err is not a unique violation.
func UniqueViolationConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode {
		return pqErr.Constraint
	}
	return ""
}
