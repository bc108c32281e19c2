package jsonl

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrRetryExhausted wraps the last transient failure once the retry time
	// budget has elapsed.
	ErrRetryExhausted = errors.New("jsonl: retry time budget exhausted")

	// ErrSourceChanged is returned when the resource's ETag changes between
	// the initial request and a reconnect, meaning the two byte streams
	// cannot be safely spliced together.
	ErrSourceChanged = errors.New("jsonl: source changed since last request")

	// ErrInvalidRecord indicates a line that is not a valid JSON value.
	ErrInvalidRecord = errors.New("jsonl: line is not valid JSON")
)

// StreamError is the terminal error of a stream. Location is the last safe
// restart point, at or before the failing record: resume with
// WithStartLocation(e.Location) to continue past everything already consumed.
type StreamError struct {
	Location FileLocation
	Err      error
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("jsonl: stream failed at %s: %v", e.Location, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As support.
func (e *StreamError) Unwrap() error {
	return e.Err
}

func newStreamError(loc FileLocation, err error) *StreamError {
	return &StreamError{Location: loc, Err: err}
}
