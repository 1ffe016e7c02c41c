package domain

import (
	"errors"
	"fmt"
)

// StatusError is an HTTP-status failure surfaced by the model endpoint.
// It is produced at the network boundary before any retry decision.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.Code, truncate(e.Body, 200))
}

// ModelCallKind classifies how a model call failed.
type ModelCallKind int

const (
	// CallRetryable marks a transient HTTP failure still within the
	// attempt budget. Callers outside the retry engine never see it.
	CallRetryable ModelCallKind = iota
	// CallExhausted marks a retryable failure that used up all attempts.
	CallExhausted
	// CallFatal marks a failure that must not be retried.
	CallFatal
)

// ModelCallError is a model-call failure scoped to one batch.
type ModelCallError struct {
	BatchNum int
	Kind     ModelCallKind
	Status   int
	Err      error
}

func (e *ModelCallError) Error() string {
	switch e.Kind {
	case CallExhausted:
		return fmt.Sprintf("batch %d: max retries exceeded (last status %d)", e.BatchNum+1, e.Status)
	default:
		return fmt.Sprintf("batch %d: model call failed: %v", e.BatchNum+1, e.Err)
	}
}

func (e *ModelCallError) Unwrap() error { return e.Err }

// RasterizationError means the page source could not produce images for
// a requested range. Fatal to the whole run.
type RasterizationError struct {
	Path string
	Err  error
}

func (e *RasterizationError) Error() string {
	return fmt.Sprintf("rasterize %s: %v", e.Path, e.Err)
}

func (e *RasterizationError) Unwrap() error { return e.Err }

// VisualElementError is a per-element extraction failure. It is reported
// and skipped, never fatal to a batch.
type VisualElementError struct {
	FigureID string
	Reason   string
}

func (e *VisualElementError) Error() string {
	return fmt.Sprintf("element %s: %s", e.FigureID, e.Reason)
}

// IsExhausted reports whether err is a model call that ran out of
// retry attempts.
func IsExhausted(err error) bool {
	var mce *ModelCallError
	return errors.As(err, &mce) && mce.Kind == CallExhausted
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
