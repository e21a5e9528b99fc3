package threatapi

import (
	"errors"
	"fmt"
	"net/http"
)

// TransportError means no valid HTTP response was obtained, or its body could not be decoded.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	if e.Err == nil {
		return "threatapi: transport failure"
	}
	return e.Err.Error()
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response that carried no usable error field.
type StatusError struct {
	Op         string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// ApplicationError is a well-formed response carrying an error field, whatever its status.
type ApplicationError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ApplicationError) Error() string { return e.Message }

// OK reports whether the error arrived with a 2xx status.
func (e *ApplicationError) OK() bool {
	return e.StatusCode >= 200 && e.StatusCode < 300
}

// ValidationError is a client-side precondition failure. No request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// IsTransport reports whether err is a TransportError.
func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// AsApplication extracts an ApplicationError from err.
func AsApplication(err error) (*ApplicationError, bool) {
	var target *ApplicationError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

// AsStatus extracts a StatusError from err.
func AsStatus(err error) (*StatusError, bool) {
	var target *StatusError
	if errors.As(err, &target) {
		return target, true
	}
	return nil, false
}

func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	if _, ok := AsApplication(err); ok {
		return "application"
	}
	if _, ok := AsStatus(err); ok {
		return "status"
	}
	return "transport"
}
