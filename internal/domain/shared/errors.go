package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
)

// Engine error taxonomy. Every failure surfaced by the decision flow maps to
// exactly one of these codes; handlers translate the code to a response status.
var (
	ErrInvalidSignature  = NewDomainError("INVALID_SIGNATURE", "Event signature verification failed")
	ErrMalformedPayload  = NewDomainError("MALFORMED_PAYLOAD", "Event payload is malformed")
	ErrDuplicateInFlight = NewDomainError("DUPLICATE_IN_FLIGHT", "Event is already being processed")
	ErrUpstreamLookup    = NewDomainError("UPSTREAM_LOOKUP_FAILED", "Order lookup failed")
	ErrRefundExecution   = NewDomainError("REFUND_EXECUTION_FAILED", "Refund submission failed")
	ErrAuditPersistence  = NewDomainError("AUDIT_PERSISTENCE_FAILED", "Audit record could not be persisted")
)
