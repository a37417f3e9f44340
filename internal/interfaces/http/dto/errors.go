package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeValidationRequired is used when a required field is missing
	ErrCodeValidationRequired = "ERR_VALIDATION_REQUIRED"
	// ErrCodeValidationFormat is used when a field has invalid format
	ErrCodeValidationFormat = "ERR_VALIDATION_FORMAT"
	// ErrCodeValidationRange is used when a value is out of range
	ErrCodeValidationRange = "ERR_VALIDATION_RANGE"
	// ErrCodeValidationLength is used when a field length is invalid
	ErrCodeValidationLength = "ERR_VALIDATION_LENGTH"
)

// Authentication error codes
const (
	// ErrCodeUnauthorized is used when authentication is required but missing/invalid
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	// ErrCodeForbidden is used when the caller lacks permission
	ErrCodeForbidden = "ERR_FORBIDDEN"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Dataset error codes
const (
	// ErrCodeSchema is used when the dataset header lacks required columns
	ErrCodeSchema = "ERR_SCHEMA"
	// ErrCodeDatasetUnavailable is used while no dataset has been loaded
	ErrCodeDatasetUnavailable = "ERR_DATASET_UNAVAILABLE"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
	// ErrCodeRequestTooLarge is used when the request body exceeds the limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// Rate limiting error codes
const (
	// ErrCodeRateLimited is used when rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeTooManyRequests is an alias for rate limiting
	ErrCodeTooManyRequests = "ERR_TOO_MANY_REQUESTS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	ErrCodeValidation:         http.StatusBadRequest,
	ErrCodeValidationRequired: http.StatusBadRequest,
	ErrCodeValidationFormat:   http.StatusBadRequest,
	ErrCodeValidationRange:    http.StatusBadRequest,
	ErrCodeValidationLength:   http.StatusBadRequest,

	// Auth errors
	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	// Resource errors
	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	// Dataset errors
	ErrCodeSchema:             http.StatusUnprocessableEntity,
	ErrCodeDatasetUnavailable: http.StatusServiceUnavailable,

	// Input errors -> 400 Bad Request
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,

	// Rate limiting -> 429 Too Many Requests
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeTooManyRequests: http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the standardized codes
// used on the wire
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":              ErrCodeNotFound,
	"INVALID_INPUT":          ErrCodeInvalidInput,
	"UNAUTHORIZED":           ErrCodeUnauthorized,
	"FORBIDDEN":              ErrCodeForbidden,
	"DATASET_UNAVAILABLE":    ErrCodeDatasetUnavailable,
	"SCHEMA_MISSING_COLUMNS": ErrCodeSchema,
	"VALIDATION_ERROR":       ErrCodeValidation,
	"BAD_REQUEST":            ErrCodeBadRequest,
	"INTERNAL_ERROR":         ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
