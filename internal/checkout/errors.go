package checkout

import (
	"errors"
	"fmt"
)

var (
	ErrTimeout    = errors.New("timeout")
	ErrNotFound   = errors.New("element not found")
	ErrIncomplete = errors.New("test incomplete")
	ErrOpenFailed = errors.New("did not succeed to open PayPal page")
	// ErrAssertion marks a page that loaded but shows the wrong content.
	ErrAssertion = errors.New("assertion failed")
)

// TimeoutError keeps the wording the triage fragments are written against.
type TimeoutError struct {
	What string
	// Cause is the last query error seen while waiting, if any.
	Cause error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("Timeout waiting for '%s'", e.What)
}

func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

type NotFoundError struct {
	Locator string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Element '%s' was not found!", e.Locator)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
