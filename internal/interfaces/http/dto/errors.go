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
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
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
	// ErrCodeAlreadyExists is used when trying to create a duplicate resource
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Decision engine error codes, one per entry in the failure taxonomy
const (
	// ErrCodeInvalidSignature is used when the webhook signature check fails
	ErrCodeInvalidSignature = "ERR_INVALID_SIGNATURE"
	// ErrCodeMalformedPayload is used when the event body cannot be parsed
	ErrCodeMalformedPayload = "ERR_MALFORMED_PAYLOAD"
	// ErrCodeDuplicateInFlight is used when the same event is already being processed
	ErrCodeDuplicateInFlight = "ERR_DUPLICATE_IN_FLIGHT"
	// ErrCodeUpstreamLookup is used when the order catalog lookup fails
	ErrCodeUpstreamLookup = "ERR_UPSTREAM_LOOKUP_FAILED"
	// ErrCodeRefundExecution is used when the refund submission fails
	ErrCodeRefundExecution = "ERR_REFUND_EXECUTION_FAILED"
	// ErrCodeAuditPersistence is used when an audit record could not be written
	ErrCodeAuditPersistence = "ERR_AUDIT_PERSISTENCE_FAILED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	// Engine taxonomy. A rejected signature is 401, a malformed payload
	// 400, a duplicate in flight 409. Upstream and execution failures are
	// retryable by the caller, audit failures are not.
	ErrCodeInvalidSignature:  http.StatusUnauthorized,
	ErrCodeMalformedPayload:  http.StatusBadRequest,
	ErrCodeDuplicateInFlight: http.StatusConflict,
	ErrCodeUpstreamLookup:    http.StatusBadGateway,
	ErrCodeRefundExecution:   http.StatusBadGateway,
	ErrCodeAuditPersistence:  http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// LegacyErrorCodeMapping maps domain error codes to the wire format
var LegacyErrorCodeMapping = map[string]string{
	"NOT_FOUND":            ErrCodeNotFound,
	"ALREADY_EXISTS":       ErrCodeAlreadyExists,
	"INVALID_INPUT":        ErrCodeBadRequest,
	"INVALID_STATE":        ErrCodeConflict,
	"CONCURRENCY_CONFLICT": ErrCodeConflict,

	"INVALID_SIGNATURE":        ErrCodeInvalidSignature,
	"MALFORMED_PAYLOAD":        ErrCodeMalformedPayload,
	"DUPLICATE_IN_FLIGHT":      ErrCodeDuplicateInFlight,
	"UPSTREAM_LOOKUP_FAILED":   ErrCodeUpstreamLookup,
	"REFUND_EXECUTION_FAILED":  ErrCodeRefundExecution,
	"AUDIT_PERSISTENCE_FAILED": ErrCodeAuditPersistence,
}

// NormalizeErrorCode converts a domain error code to the standardized format
// If the code is already in the new format or unknown, returns it as-is
func NormalizeErrorCode(code string) string {
	if newCode, ok := LegacyErrorCodeMapping[code]; ok {
		return newCode
	}
	return code
}
