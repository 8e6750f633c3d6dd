package allocation

import (
	"errors"
	"fmt"
)

// Error kinds returned by the engine. Every concrete failure is an
// *AllocationError that unwraps to exactly one of these.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrNoCustomerData       = errors.New("no customer data")
	ErrAllocationInfeasible = errors.New("allocation infeasible")
	ErrInvalidGroupRatio    = errors.New("invalid group ratio")
	ErrUnmappedGroup        = errors.New("unmapped group")
	ErrDegenerateAllocation = errors.New("degenerate allocation")
)

// AllocationError carries the kind of failure plus the segment or entity it
// concerns (empty when the failure is not tied to one).
type AllocationError struct {
	Kind    error
	Subject string
	Message string
}

func (e *AllocationError) Error() string {
	if e.Subject != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Subject, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the kind so callers can use errors.Is.
func (e *AllocationError) Unwrap() error {
	return e.Kind
}

func newError(kind error, subject string, format string, args ...interface{}) *AllocationError {
	return &AllocationError{
		Kind:    kind,
		Subject: subject,
		Message: fmt.Sprintf(format, args...),
	}
}

// SubjectOf returns the segment or entity named by err, if any.
func SubjectOf(err error) string {
	var allocErr *AllocationError
	if errors.As(err, &allocErr) {
		return allocErr.Subject
	}
	return ""
}
