package core

import (
	"errors"
	"fmt"
)

var (
	ErrOriginUnavailable = errors.New("origin unavailable")
	ErrRouteNotFound     = errors.New("route not found")
	ErrUnknownFeature    = errors.New("unknown feature")
	ErrDuplicateID       = errors.New("duplicate feature name")
	ErrModeInactive      = errors.New("drawing mode not active")
	ErrBusy              = errors.New("request already in flight")
	ErrSuperseded        = errors.New("superseded by a newer request")
	ErrNotConfirmed      = errors.New("deletion not confirmed")
)

// FetchError reports a network or decoding failure talking to the backend.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ValidationError reports a missing or malformed form field. It is raised
// before any request is sent.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// ServerRejection is a well-formed backend response with success=false.
// Message is the backend's error text, unmodified.
type ServerRejection struct {
	Op      string
	Message string
}

func (e *ServerRejection) Error() string {
	return e.Message
}

// UserMessage renders err the way it is shown in a notice.
func UserMessage(err error) string {
	var rej *ServerRejection
	var val *ValidationError
	var fetch *FetchError
	switch {
	case errors.As(err, &rej):
		return "Error: " + rej.Message
	case errors.As(err, &val):
		return val.Error()
	case errors.Is(err, ErrRouteNotFound):
		return "Could not find a route to the destination."
	case errors.Is(err, ErrOriginUnavailable):
		return "Your location is not available."
	case errors.As(err, &fetch):
		return "An unexpected error occurred: " + fetch.Err.Error()
	default:
		return err.Error()
	}
}
