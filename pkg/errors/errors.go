// Package errors defines the application error type handlers translate into
// HTTP responses.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

const (
	CodeNotFound          Code = "NOT_FOUND"
	CodeInternal          Code = "INTERNAL_ERROR"
	CodePersistence       Code = "PERSISTENCE_ERROR"
	CodeTimeout           Code = "TIMEOUT"
	CodeUnavailable       Code = "SERVICE_UNAVAILABLE"
	CodeInvalidInput      Code = "INVALID_INPUT"
	CodeUnsupportedMethod Code = "UNSUPPORTED_PAYMENT_METHOD"
)

var codeStatus = map[Code]int{
	CodeNotFound:          http.StatusNotFound,
	CodeInternal:          http.StatusInternalServerError,
	CodePersistence:       http.StatusInternalServerError,
	CodeTimeout:           http.StatusGatewayTimeout,
	CodeUnavailable:       http.StatusServiceUnavailable,
	CodeInvalidInput:      http.StatusBadRequest,
	CodeUnsupportedMethod: http.StatusBadRequest,
}

// Status is the HTTP status a code maps to. Unknown codes are 500.
func (c Code) Status() int {
	if status, ok := codeStatus[c]; ok {
		return status
	}
	return http.StatusInternalServerError
}

type AppError struct {
	Code       Code
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	return e.Code.Status()
}

// Cause returns the message of the underlying error, or "" when there is none.
func (e *AppError) Cause() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

// New builds an error whose status follows from code.
func New(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: code.Status()}
}

func Wrap(err error, code Code, message string) *AppError {
	appErr := New(code, message)
	appErr.Err = err
	return appErr
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, resource+" not found")
}

func NotFoundWithID(resource, id string) *AppError {
	return NotFound(resource).WithDetails(map[string]any{
		"resource": resource,
		"id":       id,
	})
}

func InvalidInput(message string) *AppError {
	return New(CodeInvalidInput, message)
}

// UnsupportedMethod reports a payment method with no payment-intent mapping.
func UnsupportedMethod(message string, err error) *AppError {
	return Wrap(err, CodeUnsupportedMethod, message)
}

// Persistence reports a store that was unreachable or rejected a read or write.
func Persistence(message string, err error) *AppError {
	return Wrap(err, CodePersistence, message)
}

func Internal(message string, err error) *AppError {
	return Wrap(err, CodeInternal, message)
}

func Timeout(message string) *AppError {
	return New(CodeTimeout, message)
}

func Unavailable(service string) *AppError {
	return New(CodeUnavailable, service+" is temporarily unavailable")
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError unwraps err to an AppError, treating anything else as internal.
func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}

func HasCode(err error, code Code) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}
