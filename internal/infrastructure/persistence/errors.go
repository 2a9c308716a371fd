package persistence

import (
	"errors"

	"github.com/campusops/backend/internal/domain/shared"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// isDuplicateKey reports whether err is a unique-constraint violation.
// GORM's translated error covers most drivers; the raw pq error code is
// checked as well since translation depends on dialector configuration.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgUniqueViolation
	}
	return false
}

// translateDuplicate maps a unique-constraint violation to a conflict
// domain error with the given code; other errors pass through unchanged.
func translateDuplicate(err error, code, message string) error {
	if isDuplicateKey(err) {
		return shared.NewConflictError(code, message)
	}
	return err
}

// duplicateConstraint returns the violated constraint name when the driver
// reports it, or "" when unavailable.
func duplicateConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return pqErr.Constraint
	}
	return ""
}

// translateNotFound maps gorm.ErrRecordNotFound to the shared not-found
// sentinel; other errors pass through unchanged.
func translateNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}
