package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies a failed call so callers can pick one propagation path.
type Kind string

const (
	KindNetwork Kind = "network" // request never got a response
	KindClient  Kind = "client"  // 4xx from the remote API
	KindServer  Kind = "server"  // 5xx from the remote API
	KindDecode  Kind = "decode"  // response body did not match the contract
)

// Error is the only error type returned by Client methods.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Op      string
	Err     error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (%d): %s", e.Op, e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Op, e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus maps an error onto the status the gateway should answer with.
// Client errors pass through; everything else is a bad gateway.
func HTTPStatus(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Kind == KindClient && apiErr.Status != 0 {
		return apiErr.Status
	}
	return http.StatusBadGateway
}

// Message returns the human-readable text for err, preferring the remote API's own message.
func Message(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Something went wrong. Please try again."
}

// IsNotFound reports whether the remote API answered 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}
