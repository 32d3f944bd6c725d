package core

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

var (
	ErrAuthExpired        = errors.New("session expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthenticated    = errors.New("user not authenticated")
	ErrAccountDeactivated = errors.New("account deactivated")
)

// Error codes carried by API error bodies.
const (
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeAccountDeactivated = "ACCOUNT_DEACTIVATED"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeValidation         = "VALIDATION_ERROR"
	CodeNotFound           = "NOT_FOUND"
	CodeInternal           = "INTERNAL_ERROR"
)

// NetworkError is returned when the backend could not be reached at all.
type NetworkError struct {
	Err error
}

func (err *NetworkError) Error() string {
	if err.Err == nil {
		return "network error"
	}
	return "network error: " + err.Err.Error()
}

func (err *NetworkError) Unwrap() error { return err.Err }

// TimeoutError is returned when a bounded wait is exceeded.
type TimeoutError struct {
	Err error
}

func (err *TimeoutError) Error() string { return "request timed out" }

func (err *TimeoutError) Unwrap() error { return err.Err }

// HTTPError is a non-2xx response translated from its JSON body when possible.
type HTTPError struct {
	Status  int         `json:"status"`
	Code    string      `json:"code,omitempty"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func (err *HTTPError) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("request failed with status %d", err.Status)
	}
	return err.Message
}

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return "validation failed"
	}
	return err.Err.Error()
}

// FieldMap returns field errors keyed by field name.
func (err ValidationError) FieldMap() map[string]string {
	m := make(map[string]string, len(err.Fields))
	for _, f := range err.Fields {
		m[f.Field] = f.Error
	}
	return m
}

// NotFoundError mirrors a 404 for entities missing from the mock or real store.
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) error {
	return &NotFoundError{Resource: resource, ID: id}
}

func (err *NotFoundError) Error() string {
	if err.ID == "" {
		return err.Resource + " not found"
	}
	return fmt.Sprintf("%s %q not found", err.Resource, err.ID)
}

func IsTimeout(err error) bool {
	var tErr *TimeoutError
	return errors.As(err, &tErr)
}

func IsNetwork(err error) bool {
	var nErr *NetworkError
	return errors.As(err, &nErr)
}

func IsNotFound(err error) bool {
	var nfErr *NotFoundError
	if errors.As(err, &nfErr) {
		return true
	}
	return StatusOf(err) == http.StatusNotFound
}

func IsValidation(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr)
}

// IsUnauthorized reports whether err carries a 401 anywhere in its chain.
func IsUnauthorized(err error) bool {
	return StatusOf(err) == http.StatusUnauthorized
}

// StatusOf returns the HTTP status carried by err, or 0.
func StatusOf(err error) int {
	var hErr *HTTPError
	if errors.As(err, &hErr) {
		return hErr.Status
	}
	return 0
}
