package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCode represents a Deck error code.
type ErrorCode string

const (
	ErrInvalidRequest     ErrorCode = "INVALID_REQUEST"     // 400
	ErrNotFound           ErrorCode = "NOT_FOUND"           // 404
	ErrFileNotFound       ErrorCode = "FILE_NOT_FOUND"      // 404
	ErrConflict           ErrorCode = "CONFLICT"            // 409
	ErrCardTooLarge       ErrorCode = "CARD_TOO_LARGE"      // 413
	ErrPromptRejected     ErrorCode = "PROMPT_REJECTED"     // 422
	ErrRateLimited        ErrorCode = "RATE_LIMITED"        // 429
	ErrCancelled          ErrorCode = "CANCELLED"           // 499
	ErrInternal           ErrorCode = "INTERNAL"            // 500
	ErrRewriteUnavailable ErrorCode = "REWRITE_UNAVAILABLE" // 503
)

// DeckError represents a structured error with code, status, and details.
type DeckError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *DeckError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Retryable reports whether the caller may repeat the request unchanged.
func (e *DeckError) Retryable() bool {
	v, _ := e.Details["retryable"].(bool)
	return v
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *DeckError {
	return &DeckError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for when a card cannot be found.
func NewNotFound(id string) *DeckError {
	return &DeckError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("card not found: %s", id),
		Details: map[string]any{"id": id},
	}
}

// NewFileNotFound creates a 404 error for a missing import source.
func NewFileNotFound(path string) *DeckError {
	return &DeckError{
		Code:    ErrFileNotFound,
		Status:  404,
		Message: fmt.Sprintf("file not found: %s", path),
		Details: map[string]any{"path": path},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *DeckError {
	return &DeckError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewCardTooLarge creates a 413 error when a title or body exceeds its limit.
func NewCardTooLarge(field string, max, actual int) *DeckError {
	return &DeckError{
		Code:    ErrCardTooLarge,
		Status:  413,
		Message: fmt.Sprintf("%s exceeds maximum size: %d chars (max %d)", field, actual, max),
		Details: map[string]any{"field": field, "max_chars": max, "actual_chars": actual},
	}
}

// NewPromptRejected creates a 422 error for a rewrite prompt that failed
// validation, or that the model refused.
func NewPromptRejected(reason string) *DeckError {
	return &DeckError{
		Code:    ErrPromptRejected,
		Status:  422,
		Message: reason,
	}
}

// NewRateLimited creates a 429 error when the local rewrite budget is spent.
func NewRateLimited(msg string) *DeckError {
	return &DeckError{
		Code:    ErrRateLimited,
		Status:  429,
		Message: msg,
		Details: map[string]any{"retryable": true},
	}
}

// NewCancelled creates a 499 error for an operation aborted by its context.
func NewCancelled(op string) *DeckError {
	return &DeckError{
		Code:    ErrCancelled,
		Status:  499,
		Message: fmt.Sprintf("%s cancelled", op),
	}
}

// NewRewriteUnavailable creates a 503 error for upstream model failures.
// These are always reported as retryable.
func NewRewriteUnavailable(err error) *DeckError {
	msg := "rewrite service unavailable"
	if err != nil {
		msg = fmt.Sprintf("%s: %v", msg, err)
	}
	return &DeckError{
		Code:    ErrRewriteUnavailable,
		Status:  503,
		Message: msg,
		Details: map[string]any{"retryable": true},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
// The cause is kept in Details for logging, never in Message.
func NewInternal(err error) *DeckError {
	details := map[string]any{}
	if err != nil {
		details["internal_error"] = err.Error()
	}
	return &DeckError{
		Code:    ErrInternal,
		Status:  500,
		Message: "an internal error occurred",
		Details: details,
	}
}

// Is checks if err (or anything it wraps) is a DeckError with the given code.
func Is(err error, code ErrorCode) bool {
	var dErr *DeckError
	if stderrors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}

// As extracts a DeckError from err, wrapping unknown errors as INTERNAL.
func As(err error) *DeckError {
	if err == nil {
		return nil
	}
	var dErr *DeckError
	if stderrors.As(err, &dErr) {
		return dErr
	}
	return NewInternal(err)
}
