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

// ErrInvalidState is returned when an operation is not allowed in the
// current state, e.g. re-executing a finished generation run.
var ErrInvalidState = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
