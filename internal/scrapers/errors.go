package scrapers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-resty/resty/v2"
)

// TransportError is a failure to obtain a response body: connection errors,
// timeouts and unexpected http statuses.
type TransportError struct {
	URL    string
	Status int
	// Retryable is false for statuses that will not change on retry (404).
	Retryable bool
	Err       error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport: GET %s: status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("transport: GET %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthError means a credential (api key or session) is missing, invalid or
// expired. It is never retried.
type AuthError struct {
	Reason string
	Err    error
}

func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("auth: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("auth: %s", e.Reason)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ParseError means a response was received but its structure was not
// recognized. The entity it belongs to is skipped.
type ParseError struct {
	Entity string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.Entity, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError means a single record is missing a required field or has
// an out of range value. The record is skipped.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func IsTransport(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

func IsAuth(err error) bool {
	var target *AuthError
	return errors.As(err, &target)
}

func IsParse(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsRetryable reports whether err is a transport failure that may succeed
// when tried again.
func IsRetryable(err error) bool {
	var target *TransportError
	if !errors.As(err, &target) {
		return false
	}
	return target.Retryable
}

// CheckResponse turns the result of a resty request into one of the error
// kinds above, it returns nil for 2xx and 3xx responses.
func CheckResponse(res *resty.Response, err error) error {
	if err != nil {
		url := ""
		if res != nil && res.Request != nil {
			url = res.Request.URL
		}
		return &TransportError{URL: url, Retryable: true, Err: err}
	}

	status := res.StatusCode()
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{
			Reason: fmt.Sprintf("GET %s: status %d", res.Request.URL, status),
		}
	case status == http.StatusTooManyRequests || status >= 500:
		return &TransportError{URL: res.Request.URL, Status: status, Retryable: true}
	case status >= 400:
		return &TransportError{URL: res.Request.URL, Status: status, Retryable: false}
	}
	return nil
}
