package models

import "fmt"

// NormalizationReason distinguishes the recoverable normalization failures.
type NormalizationReason string

const (
	ReasonUnknownItem NormalizationReason = "unknown_item"
	ReasonUnknownUnit NormalizationReason = "unknown_unit"
)

// NormalizationError reports a name or unit that could not be canonicalized.
// It carries the raw string so the caller can surface it to the user instead
// of silently guessing.
type NormalizationError struct {
	Reason NormalizationReason
	Raw    string
}

func (e *NormalizationError) Error() string {
	return fmt.Sprintf("normalization failed (%s): %q", e.Reason, e.Raw)
}

// StoreError wraps a persistent-store failure. It is the only unrecoverable
// condition in the core and must be distinguishable from user-input errors.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
