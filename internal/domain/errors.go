package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation    = "VALIDATION_ERROR"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeFlagged       = "QUERY_FLAGGED"
	ErrCodeNotASearch    = "NOT_A_SEARCH"
	ErrCodeTranslation   = "TRANSLATION_FAILED"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrEmptyQuery      = NewDomainError(ErrCodeValidation, "search query cannot be empty")
	ErrInvalidPage     = NewDomainError(ErrCodeValidation, "page must be >= 1")
	ErrInvalidPerPage  = NewDomainError(ErrCodeValidation, "per_page must be >= 1")
	ErrMissingClientID = NewDomainError(ErrCodeValidation, "client_id is required")
)

// Policy rejections: the query itself is unacceptable, not the system
var (
	ErrQueryFlagged = NewDomainError(ErrCodeFlagged, "query flagged as inappropriate")
	ErrNotASearch   = NewDomainError(ErrCodeNotASearch, "query is not a search request")
)

// Translation errors
var (
	ErrNoSQLGenerated = NewDomainError(ErrCodeTranslation, "LLM did not generate a usable SQL query")
	ErrNotSelect      = NewDomainError(ErrCodeTranslation, "generated statement is not a SELECT")
)

// Not found errors
var (
	ErrHistoryEntryNotFound = NewDomainError(ErrCodeNotFound, "search history entry not found")
)
