package errors

import (
	"fmt"
	"net/http"
)

const (
	// ErrorTypeCompressionFailure indicates a payload could not be compressed
	// or decompressed
	ErrorTypeCompressionFailure ErrorType = "COMPRESSION_FAILURE"

	// ErrorTypeCacheCapacity indicates an entry was rejected because it would
	// consume too much of the cache budget
	ErrorTypeCacheCapacity ErrorType = "CACHE_CAPACITY_EXCEEDED"

	// ErrorTypeCacheOperation indicates an internal cache operation failure
	ErrorTypeCacheOperation ErrorType = "CACHE_OPERATION"
)

// NewCompressionFailureError creates a compression failure error
func NewCompressionFailureError(method string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeCompressionFailure,
		Message:    fmt.Sprintf("compression method '%s' failed", method),
		Cause:      err,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// NewUnknownCompressionMethodError creates an error for an unrecognized
// compression method tag found on a stored entry
func NewUnknownCompressionMethodError(method string) *AppError {
	return &AppError{
		Type:       ErrorTypeCompressionFailure,
		Message:    fmt.Sprintf("unknown compression method '%s'", method),
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// NewCacheCapacityError creates an error for an entry too large for its cache
func NewCacheCapacityError(key string, size, maxSize int) *AppError {
	return &AppError{
		Type:       ErrorTypeCacheCapacity,
		Message:    fmt.Sprintf("entry of %d bytes exceeds the per-entry limit of %d bytes", size, maxSize),
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
		Details: map[string]interface{}{
			"key":      key,
			"size":     size,
			"max_size": maxSize,
		},
	}
}

// NewCacheOperationError creates an error for a failed cache operation
func NewCacheOperationError(operation string, err error) *AppError {
	return &AppError{
		Type:       ErrorTypeCacheOperation,
		Message:    fmt.Sprintf("cache operation '%s' failed", operation),
		Cause:      err,
		HTTPStatus: http.StatusInternalServerError,
		StackTrace: captureStackTrace(),
	}
}

// IsCompressionFailure checks if an error is a compression failure
func IsCompressionFailure(err error) bool {
	return IsType(err, ErrorTypeCompressionFailure)
}

// IsCacheCapacity checks if an error is a cache capacity rejection
func IsCacheCapacity(err error) bool {
	return IsType(err, ErrorTypeCacheCapacity)
}

// IsCacheOperation checks if an error is an internal cache failure
func IsCacheOperation(err error) bool {
	return IsType(err, ErrorTypeCacheOperation)
}
