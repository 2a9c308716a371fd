package shared

import "errors"

// ErrorKind classifies a domain error into the failure taxonomy shared by
// every workflow: not-found, validation, conflict, consistency and
// persistence failures.
type ErrorKind string

const (
	// KindNotFound means the entity is absent or belongs to another tenant.
	KindNotFound ErrorKind = "NOT_FOUND"
	// KindValidation means the input was malformed (negative amount,
	// missing field, cross-tenant reference).
	KindValidation ErrorKind = "VALIDATION"
	// KindConflict means the operation clashes with current state
	// (duplicate installment number, already-converted customer,
	// mutating a paid installment, stale concurrent write).
	KindConflict ErrorKind = "CONFLICT"
	// KindConsistency means an aggregate invariant would be violated
	// (installment sum exceeding the payment total).
	KindConsistency ErrorKind = "CONSISTENCY"
	// KindPersistence means a durable write could not be committed.
	KindPersistence ErrorKind = "PERSISTENCE"
)

// DomainError represents a domain-level error with a machine-readable
// kind and code plus a human-readable message.
type DomainError struct {
	Kind    ErrorKind `json:"kind"`
	Code    string    `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error of the given kind
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates a not-found domain error
func NewNotFoundError(code, message string) *DomainError {
	return NewDomainError(KindNotFound, code, message)
}

// NewValidationError creates a validation domain error
func NewValidationError(code, message string) *DomainError {
	return NewDomainError(KindValidation, code, message)
}

// NewConflictError creates a conflict domain error
func NewConflictError(code, message string) *DomainError {
	return NewDomainError(KindConflict, code, message)
}

// NewConsistencyError creates a consistency domain error
func NewConsistencyError(code, message string) *DomainError {
	return NewDomainError(KindConsistency, code, message)
}

// NewPersistenceError creates a persistence domain error
func NewPersistenceError(code, message string) *DomainError {
	return NewDomainError(KindPersistence, code, message)
}

// Common domain errors
var (
	ErrNotFound           = NewNotFoundError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists      = NewConflictError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput       = NewValidationError("INVALID_INPUT", "Invalid input provided")
	ErrCrossTenant        = NewValidationError("CROSS_TENANT_REFERENCE", "Referenced entity belongs to another tenant")
	ErrStaleWrite         = NewConflictError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState       = NewConflictError("INVALID_STATE", "Operation not allowed in current state")
	ErrPersistenceFailure = NewPersistenceError("PERSISTENCE_FAILURE", "Durable write could not be committed")
)

// AsDomainError extracts a DomainError from an error chain, if present
func AsDomainError(err error) (*DomainError, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// IsKind reports whether err is a DomainError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	de, ok := AsDomainError(err)
	return ok && de.Kind == kind
}

// IsNotFound reports whether err is a not-found domain error
func IsNotFound(err error) bool { return IsKind(err, KindNotFound) }

// IsValidation reports whether err is a validation domain error
func IsValidation(err error) bool { return IsKind(err, KindValidation) }

// IsConflict reports whether err is a conflict domain error
func IsConflict(err error) bool { return IsKind(err, KindConflict) }

// IsConsistency reports whether err is a consistency domain error
func IsConsistency(err error) bool { return IsKind(err, KindConsistency) }

// IsPersistence reports whether err is a persistence domain error
func IsPersistence(err error) bool { return IsKind(err, KindPersistence) }
