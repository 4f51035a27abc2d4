package oracle

import (
	"errors"
	"fmt"
)

// TransportError wraps a network-level failure reaching the oracle. The
// round that hit it may be retried with identical inputs.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string { return "oracle: transport: " + e.Err.Error() }
func (e *TransportError) Unwrap() error { return e.Err }

// RejectionError reports a non-success status from a reachable oracle
// (invalid credential, rate limit, ...). Message carries the service-reported
// text when available, else a generic status description.
type RejectionError struct {
	Status  int
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("oracle: rejected [%d]: %s", e.Status, e.Message)
}

// IsTransport reports whether err is (or wraps) a TransportError.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// IsRejection reports whether err is (or wraps) a RejectionError.
func IsRejection(err error) bool {
	var re *RejectionError
	return errors.As(err, &re)
}
