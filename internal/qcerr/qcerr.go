// Package qcerr defines the error taxonomy shared by the inspection core.
// Handlers map these onto HTTP status codes; everything else wraps with
// fmt.Errorf("...: %w", err) as usual.
package qcerr

import "fmt"

// ValidationError marks input the client could have detected itself. It is
// surfaced immediately and never causes a collaborator call.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Validation builds a ValidationError naming the offending field.
func Validation(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError marks a lookup miss that drives a specific UI branch (offer
// roll creation, refresh a stale ledger) rather than a generic failure.
type NotFoundError struct {
	Resource string
	Key      string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
}

// NotFound builds a NotFoundError for the given resource and lookup key.
func NotFound(resource, key string) *NotFoundError {
	return &NotFoundError{Resource: resource, Key: key}
}

// IntegrationError marks a transport or collaborator failure. The operation is
// retryable and no state was changed on our side.
type IntegrationError struct {
	Op  string
	Err error
}

func (e *IntegrationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *IntegrationError) Unwrap() error { return e.Err }

// Integration wraps err as a collaborator failure for the named operation.
func Integration(op string, err error) *IntegrationError {
	return &IntegrationError{Op: op, Err: err}
}

// ConflictError marks an operation rejected because another one is still in
// flight (a resolve already running, a defect mutation pending at finalize).
type ConflictError struct {
	Reason string
}

func (e *ConflictError) Error() string { return e.Reason }

// Conflict builds a ConflictError with the given reason.
func Conflict(reason string) *ConflictError {
	return &ConflictError{Reason: reason}
}
