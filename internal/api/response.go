package api

import (
	"encoding/json"
	"net/http"

	"github.com/tubesage/tubesage/internal/domain"
)

// SuccessResponse wraps successful API responses
type SuccessResponse struct {
	Data interface{} `json:"data"`
}

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
	// Remedy suggests a next step for fatal setup errors.
	Remedy string `json:"remedy,omitempty"`
	// Retryable marks errors the same request can recover from.
	Retryable bool `json:"retryable,omitempty"`
}

// JSON writes a JSON response with the given status code
func JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// Success writes a successful JSON response
func Success(w http.ResponseWriter, status int, data interface{}) {
	JSON(w, status, SuccessResponse{Data: data})
}

// Error writes an error JSON response
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// DomainErrorToHTTP maps domain errors to HTTP status codes
func DomainErrorToHTTP(err error) int {
	if err == nil {
		return http.StatusOK
	}

	domainErr, ok := err.(*domain.DomainError)
	if !ok {
		return http.StatusInternalServerError
	}

	switch domainErr.Code {
	case domain.ErrCodeValidation:
		return http.StatusBadRequest
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeNoTranscript, domain.ErrCodeVideoUnavailable, domain.ErrCodeIndexingFailure:
		return http.StatusUnprocessableEntity
	case domain.ErrCodeSearchFailure, domain.ErrCodeGenerationError:
		return http.StatusBadGateway
	case domain.ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// remedies suggests a next step per fatal error code, shown alongside
// the error so the user knows how to proceed.
var remedies = map[string]string{
	domain.ErrCodeNoTranscript:     "try another video with captions enabled",
	domain.ErrCodeVideoUnavailable: "check the URL or try another video",
	domain.ErrCodeIndexingFailure:  "try another video, or disable enrichment",
	domain.ErrCodeGenerationError:  "retry the question; your chat history is preserved",
}

// HandleError writes an appropriate error response based on the error type
func HandleError(w http.ResponseWriter, err error) {
	status := DomainErrorToHTTP(err)
	resp := ErrorResponse{Error: err.Error()}
	if domainErr, ok := err.(*domain.DomainError); ok {
		resp.Code = domainErr.Code
		resp.Remedy = remedies[domainErr.Code]
		resp.Retryable = !domain.IsFatal(domainErr)
	}
	JSON(w, status, resp)
}
