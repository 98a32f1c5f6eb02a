package domain

import (
	"fmt"
	"strings"
)

// NotFoundError represents a missing resource.
type NotFoundError struct {
	Resource string
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

// Is enables errors.Is matching on NotFoundError.
func (e NotFoundError) Is(target error) bool {
	_, ok := target.(NotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*NotFoundError)
	return ok
}

// ErrNotFound is the sentinel error for missing resources.
var ErrNotFound = NotFoundError{}

// OwnerNotFoundError means the person referenced at create time does not
// exist. Terminal for that attempt; never retried automatically.
type OwnerNotFoundError struct {
	Kind string
	ID   string
}

func (e OwnerNotFoundError) Error() string {
	if e.ID == "" {
		return "owner not found"
	}
	return fmt.Sprintf("owner %s:%s not found", e.Kind, e.ID)
}

func (e OwnerNotFoundError) Is(target error) bool {
	_, ok := target.(OwnerNotFoundError)
	if ok {
		return true
	}
	_, ok = target.(*OwnerNotFoundError)
	return ok
}

var ErrOwnerNotFound = OwnerNotFoundError{}

// ValidationError names the payload fields that violated a constraint.
// The caller must correct and resubmit.
type ValidationError struct {
	Fields []string
}

func (e ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Fields, ", "))
}

func (e ValidationError) Is(target error) bool {
	_, ok := target.(ValidationError)
	if ok {
		return true
	}
	_, ok = target.(*ValidationError)
	return ok
}

var ErrValidation = ValidationError{}

// ConstraintViolationError means the storage boundary rejected a write that
// the access service should never have let through. Observing one is a
// defect in validation, not a recoverable caller error.
type ConstraintViolationError struct {
	Detail string
}

func (e ConstraintViolationError) Error() string {
	if e.Detail == "" {
		return "storage constraint violated"
	}
	return fmt.Sprintf("storage constraint violated: %s", e.Detail)
}

func (e ConstraintViolationError) Is(target error) bool {
	_, ok := target.(ConstraintViolationError)
	if ok {
		return true
	}
	_, ok = target.(*ConstraintViolationError)
	return ok
}

var ErrConstraintViolation = ConstraintViolationError{}

// TransportError wraps a failed round trip. Any optimistic cache change is
// rolled back before one of these is surfaced; retrying is up to the caller.
type TransportError struct {
	Err error
}

func (e TransportError) Error() string {
	if e.Err == nil {
		return "transport failure"
	}
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e TransportError) Unwrap() error {
	return e.Err
}

func (e TransportError) Is(target error) bool {
	_, ok := target.(TransportError)
	if ok {
		return true
	}
	_, ok = target.(*TransportError)
	return ok
}

var ErrTransport = TransportError{}
