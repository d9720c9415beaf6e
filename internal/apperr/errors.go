// Package apperr defines the error taxonomy shared by the sync pipeline and the viewer.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrTransport       = errors.New("transport failed")
	ErrDecode          = errors.New("decode failed")
	ErrConfig          = errors.New("invalid configuration")
	ErrGateDenied      = errors.New("gate: credential rejected")
	ErrGateUnavailable = errors.New("gate: no credential configured")
	ErrLocked          = errors.New("locked")
	ErrMediaLoad       = errors.New("media load failed")
	ErrNoMedia         = errors.New("no media could be loaded")
	ErrSuperseded      = errors.New("superseded by a newer request")
	ErrSyncRunning     = errors.New("another sync is running")
)

// LoadError reports a snapshot fetch that did not return a 2xx response.
type LoadError struct {
	URL        string
	StatusCode int
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: status %d", e.URL, e.StatusCode)
}

func (e *LoadError) Unwrap() error { return ErrTransport }

// RemoteError is a non-2xx answer from the content store API.
type RemoteError struct {
	Status int
	Body   string
}

func (e *RemoteError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("remote api: status %d", e.Status)
	}
	return fmt.Sprintf("remote api: status %d: %s", e.Status, e.Body)
}

func (e *RemoteError) Unwrap() error { return ErrTransport }

// DecodeError records which property failed to decode.
type DecodeError struct {
	Property string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode property %q: %v", e.Property, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrDecode, e.Err} }
