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
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeNotFound         = "NOT_FOUND"
	ErrCodeNoTranscript     = "NO_TRANSCRIPT"
	ErrCodeVideoUnavailable = "VIDEO_UNAVAILABLE"
	ErrCodeSearchFailure    = "SEARCH_FAILURE"
	ErrCodeIndexingFailure  = "INDEXING_FAILURE"
	ErrCodeGenerationError  = "GENERATION_ERROR"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrInvalidVideoURL      = NewDomainError(ErrCodeValidation, "could not extract a video id from url")
	ErrInvalidStrategy      = NewDomainError(ErrCodeValidation, "invalid enrichment strategy")
	ErrInvalidPreset        = NewDomainError(ErrCodeValidation, "invalid enrichment preset")
	ErrEmptyQuestion        = NewDomainError(ErrCodeValidation, "question cannot be empty")
	ErrMissingRequiredField = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrSessionNotFound = NewDomainError(ErrCodeNotFound, "session not found")
)

// Pipeline errors. Transcript and indexing failures are fatal to session
// setup; search and generation failures degrade a single strategy or
// question without aborting the session.
var (
	ErrNoTranscript     = NewDomainError(ErrCodeNoTranscript, "video has no captions in any language")
	ErrVideoUnavailable = NewDomainError(ErrCodeVideoUnavailable, "video cannot be resolved")
	ErrSearchFailed     = NewDomainError(ErrCodeSearchFailure, "web search failed")
	ErrIndexingFailed   = NewDomainError(ErrCodeIndexingFailure, "no chunks produced for indexing")
	ErrGenerationFailed = NewDomainError(ErrCodeGenerationError, "llm returned an error or empty answer")
)

// IsFatal reports whether an error aborts session setup. Search and
// generation failures are the only recoverable kinds.
func IsFatal(err error) bool {
	domainErr, ok := err.(*DomainError)
	if !ok {
		return true
	}
	switch domainErr.Code {
	case ErrCodeSearchFailure, ErrCodeGenerationError:
		return false
	default:
		return true
	}
}
