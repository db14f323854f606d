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
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
	// ErrCodeConcurrencyConflict is used when optimistic locking fails
	ErrCodeConcurrencyConflict = "ERR_CONCURRENCY_CONFLICT"
)

// Business rule error codes
const (
	// ErrCodeInvalidState is used when an operation is invalid for current state
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	// ErrCodeInsufficientStock is used when option stock cannot cover a request
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	// ErrCodeGroupBuyEnded is used when ordering against a closed or expired group buy
	ErrCodeGroupBuyEnded = "ERR_GROUP_BUY_ENDED"
	// ErrCodePersonalLimitExceeded is used when an order would exceed the per-member cap
	ErrCodePersonalLimitExceeded = "ERR_PERSONAL_LIMIT_EXCEEDED"
	// ErrCodeOptionMismatch is used when an option does not belong to the group buy
	ErrCodeOptionMismatch = "ERR_OPTION_MISMATCH"
	// ErrCodeOrderInProgress is used when the member already has an admission in flight
	ErrCodeOrderInProgress = "ERR_ORDER_IN_PROGRESS"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidInput: http.StatusBadRequest,

	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeAlreadyExists:       http.StatusConflict,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,

	ErrCodeInvalidState:          http.StatusUnprocessableEntity,
	ErrCodeInsufficientStock:     http.StatusUnprocessableEntity,
	ErrCodeGroupBuyEnded:         http.StatusUnprocessableEntity,
	ErrCodePersonalLimitExceeded: http.StatusUnprocessableEntity,
	ErrCodeOptionMismatch:        http.StatusUnprocessableEntity,

	// A held member lock means the same member is mid-admission
	ErrCodeOrderInProgress: http.StatusLocked,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Returns 500 Internal Server Error if the error code is not found.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":                ErrCodeNotFound,
	"ALREADY_EXISTS":           ErrCodeAlreadyExists,
	"CONCURRENCY_CONFLICT":     ErrCodeConcurrencyConflict,
	"INSUFFICIENT_STOCK":       ErrCodeInsufficientStock,
	"GROUP_BUY_ENDED":          ErrCodeGroupBuyEnded,
	"PERSONAL_LIMIT_EXCEEDED":  ErrCodePersonalLimitExceeded,
	"OPTION_MISMATCH":          ErrCodeOptionMismatch,
	"ORDER_IN_PROGRESS":        ErrCodeOrderInProgress,
	"INVALID_STATE":            ErrCodeInvalidState,
	"INVALID_STATE_TRANSITION": ErrCodeInvalidState,
	"INVALID_GROUP_BUY":        ErrCodeInvalidInput,
	"INVALID_OPTION":           ErrCodeInvalidInput,
	"INVALID_ORDER":            ErrCodeInvalidInput,
	"INVALID_DISCOUNT_STAGES":  ErrCodeInvalidInput,
	"INVALID_INPUT":            ErrCodeInvalidInput,
	"VALIDATION_ERROR":         ErrCodeValidation,
	"BAD_REQUEST":              ErrCodeBadRequest,
	"INTERNAL_ERROR":           ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// If the code is already in the API format or unknown, returns it as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
