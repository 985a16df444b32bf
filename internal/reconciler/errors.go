package reconciler

import (
	"errors"
	"fmt"
)

// Phases of a reconciliation cycle that can fail
const (
	PhaseResolution = "resolution"
	PhaseReporting  = "reporting"
)

// ResolutionError is returned by Run when the current address could not
// be obtained
type ResolutionError struct {
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("IP resolution failed: %v", e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// ReportingError is returned by Run when a reporter failed. Reporters
// after it in the list were not invoked.
type ReportingError struct {
	Reporter string
	Err      error
}

func (e *ReportingError) Error() string {
	return fmt.Sprintf("reporting state update to %s failed: %v", e.Reporter, e.Err)
}

func (e *ReportingError) Unwrap() error { return e.Err }

// Phase returns the phase an error returned by Run belongs to, or an
// empty string for anything else
func Phase(err error) string {
	var resErr *ResolutionError
	if errors.As(err, &resErr) {
		return PhaseResolution
	}
	var repErr *ReportingError
	if errors.As(err, &repErr) {
		return PhaseReporting
	}
	return ""
}
