package apperror

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrPermission   = errors.New("permission denied")
	ErrInvalidInput = errors.New("invalid input")
	ErrConflict     = errors.New("conflict")
	ErrTransient    = errors.New("transient failure")
	ErrMalformed    = errors.New("malformed data")
	ErrInternal     = errors.New("internal server error")
	ErrUnauthorized = errors.New("unauthorized")
)

type AppError struct {
	BaseError error
	Message   string
	Details   string
	Err       error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (Details: %s, Cause: %v)", e.BaseError.Error(), e.Message, e.Details, e.Err)
	}
	return fmt.Sprintf("%s: %s (Details: %s)", e.BaseError.Error(), e.Message, e.Details)
}

// Unwrap exposes both the kind and the cause, so errors.Is matches either.
func (e *AppError) Unwrap() []error {
	if e.Err != nil {
		return []error{e.BaseError, e.Err}
	}
	return []error{e.BaseError}
}

func NewAppError(base error, msg, details string, err error) *AppError {
	return &AppError{BaseError: base, Message: msg, Details: details, Err: err}
}

func NewNotFound(resource, identifier string) *AppError {
	msg := fmt.Sprintf("%s not found", resource)
	details := fmt.Sprintf("%s with identifier '%s' was not found", resource, identifier)
	return NewAppError(ErrNotFound, msg, details, nil)
}

func NewInvalidInput(details string, err error) *AppError {
	return NewAppError(ErrInvalidInput, "Invalid input provided", details, err)
}

func NewConflict(resource, details string) *AppError {
	return NewAppError(ErrConflict, fmt.Sprintf("%s conflict", resource), details, nil)
}

// NewTransient marks a network or backing-service failure. Callers may retry.
func NewTransient(details string, err error) *AppError {
	return NewAppError(ErrTransient, "A backing service call failed", details, err)
}

func NewMalformed(details string, err error) *AppError {
	return NewAppError(ErrMalformed, "Stored data is malformed", details, err)
}

func NewInternal(details string, err error) *AppError {
	return NewAppError(ErrInternal, "An internal server error occurred", details, err)
}

func NewUnauthorized(details string, err error) *AppError {
	return NewAppError(ErrUnauthorized, "Authentication required", details, err)
}

func NewPermissionDenied(details string) *AppError {
	return NewAppError(ErrPermission, "Permission denied", details, nil)
}

// KindOf returns the kind of the outermost AppError in err's chain, so a
// Transient wrapping a NotFound is Transient. Bare sentinels are returned as is.
func KindOf(err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.BaseError
	}
	return err
}

func ToHTTPStatus(err error) int {
	kind := KindOf(err)
	switch {
	case errors.Is(kind, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(kind, ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(kind, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(kind, ErrPermission):
		return http.StatusForbidden
	case errors.Is(kind, ErrConflict):
		return http.StatusConflict
	case errors.Is(kind, ErrMalformed):
		return http.StatusUnprocessableEntity
	case errors.Is(kind, ErrTransient):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (e *AppError) ToJSON() gin.H {
	return gin.H{
		"error":   e.BaseError.Error(),
		"message": e.Message,
	}
}
