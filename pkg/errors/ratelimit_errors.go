package errors

import (
	"fmt"
	"net/http"
)

const (
	// ErrorTypeClientBlocked indicates the client is serving a temporary block
	ErrorTypeClientBlocked ErrorType = "CLIENT_BLOCKED"

	// ErrorTypeRateLimiterInternal indicates the limiter itself failed; such
	// errors are logged and the request is allowed through
	ErrorTypeRateLimiterInternal ErrorType = "RATE_LIMITER_INTERNAL"
)

// NewRateLimitExceededError creates the structured rejection for a client
// that exceeded its request allowance. The message is already localized for
// the client; the reference ID is opaque and safe to show.
func NewRateLimitExceededError(message string, retryAfterSeconds int, referenceID string) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimit,
		Message:    message,
		Code:       "RATE_LIMIT_EXCEEDED",
		HTTPStatus: http.StatusTooManyRequests,
		StackTrace: captureStackTrace(),
		Details: map[string]interface{}{
			"retry_after_seconds": retryAfterSeconds,
			"reference_id":        referenceID,
		},
	}
}

// NewClientBlockedError creates the structured rejection for a client serving
// an active block
func NewClientBlockedError(message string, retryAfterSeconds int, referenceID string) *AppError {
	return &AppError{
		Type:       ErrorTypeClientBlocked,
		Message:    message,
		Code:       "CLIENT_BLOCKED",
		HTTPStatus: http.StatusTooManyRequests,
		StackTrace: captureStackTrace(),
		Details: map[string]interface{}{
			"retry_after_seconds": retryAfterSeconds,
			"reference_id":        referenceID,
		},
	}
}

// NewRateLimiterInternalError creates an error for a limiter-internal failure
func NewRateLimiterInternalError(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeRateLimiterInternal,
		Message:    fmt.Sprintf("rate limiter operation '%s' failed", operation),
		Cause:      err,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// IsRateLimitExceeded checks if an error is a rate limit rejection
func IsRateLimitExceeded(err error) bool {
	return IsType(err, ErrorTypeRateLimit)
}

// IsClientBlocked checks if an error is a client block rejection
func IsClientBlocked(err error) bool {
	return IsType(err, ErrorTypeClientBlocked)
}

// IsRateLimiterInternal checks if an error is a limiter-internal failure
func IsRateLimiterInternal(err error) bool {
	return IsType(err, ErrorTypeRateLimiterInternal)
}

// RetryAfterSeconds extracts the retry hint from a rate limit or block error,
// returning 0 when the error carries none.
func RetryAfterSeconds(err error) int {
	appErr := GetAppError(err)
	if appErr == nil || appErr.Details == nil {
		return 0
	}
	if v, ok := appErr.Details["retry_after_seconds"].(int); ok {
		return v
	}
	return 0
}
