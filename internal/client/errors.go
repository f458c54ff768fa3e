package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork matches every failure where no response was received.
	ErrNetwork = errors.New("network failure")

	// ErrNotFound matches a 404 response from the products API.
	ErrNotFound = errors.New("product not found")
)

// NetworkError is returned when a request never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s products: network failure: %v", e.Op, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrNetwork.
func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// StatusError is returned for any non-2xx response.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s products: server responded %d: %s", e.Op, e.StatusCode, msg)
}

// Is reports whether target is ErrNotFound and the response was a 404.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// DecodeError is returned when a 2xx response body cannot be decoded.
type DecodeError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s products: decode response: %v", e.Op, e.Err)
}

// Unwrap returns the underlying decode error.
func (e *DecodeError) Unwrap() error {
	return e.Err
}
