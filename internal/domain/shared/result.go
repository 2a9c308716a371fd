package shared

// Result is the envelope returned by workflow entry points. Expected
// failures (not-found, validation, conflict, consistency) are carried in
// Error so callers can render a deterministic message without unwrapping
// error chains; only unexpected persistence failures travel as plain Go
// errors alongside the envelope.
type Result[T any] struct {
	Success bool         `json:"success"`
	Data    *T           `json:"data,omitempty"`
	Error   *DomainError `json:"error,omitempty"`
}

// OK builds a successful result carrying data
func OK[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: &data}
}

// Fail builds a failed result carrying a domain error
func Fail[T any](err *DomainError) Result[T] {
	return Result[T]{Success: false, Error: err}
}

// FailFrom builds a failed result from any error. Non-domain errors are
// wrapped as persistence failures so the envelope never leaks raw driver
// messages.
func FailFrom[T any](err error) Result[T] {
	if de, ok := AsDomainError(err); ok {
		return Fail[T](de)
	}
	return Fail[T](NewPersistenceError("PERSISTENCE_FAILURE", err.Error()))
}

// Unwrap returns the data and domain error carried by the result
func (r Result[T]) Unwrap() (*T, *DomainError) {
	return r.Data, r.Error
}
