package domain

import (
	"errors"
	"fmt"
)

// ErrForbiddenOperation is returned for every deletion attempt. The store
// is append/update-only; this holds unconditionally, including for
// administrative callers.
var ErrForbiddenOperation = errors.New("forbidden operation: this deployment is read-only")

// ErrSyncInProgress is returned when a cycle is requested while another
// one is still running.
var ErrSyncInProgress = errors.New("sync cycle already in progress")

// UpstreamError wraps a transport failure or a protocol-level error list
// from the remote API. Callers decide the retry policy.
type UpstreamError struct {
	Op      string
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("upstream %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}
