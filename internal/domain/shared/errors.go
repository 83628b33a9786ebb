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
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Billing and ledger error codes. Handlers map these to HTTP statuses.
// INVARIANT_VIOLATION marks a programming error caught at the write boundary
// and is never presented as a client fault.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeDuplicatePeriod   = "DUPLICATE_PERIOD"
	ErrCodeDuplicateLedger   = "DUPLICATE_LEDGER_DOCUMENT"
	ErrCodeOverpayment       = "OVERPAYMENT"
	ErrCodeAlreadySettled    = "ALREADY_SETTLED"
	ErrCodeHasPayments       = "HAS_PAYMENTS"
	ErrCodeInvariantViolated = "INVARIANT_VIOLATION"
)
