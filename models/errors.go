package models

import (
	"errors"
	"fmt"
)

// Error codes used in API responses and internal error handling.
const (
	ErrCodeInvalidURL       = "INVALID_URL"
	ErrCodeUnsupportedSite  = "UNSUPPORTED_SITE"
	ErrCodeEmptyExtraction  = "EMPTY_EXTRACTION"
	ErrCodeExtractionFailed = "EXTRACTION_FAILED"
	ErrCodeFormatConversion = "FORMAT_CONVERSION_FAILED"
	ErrCodeInvalidInput     = "INVALID_INPUT"
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeRateLimited      = "RATE_LIMITED"
	ErrCodePersistence      = "PERSISTENCE_FAILED"
	ErrCodeLLMFailure       = "LLM_FAILURE"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ErrorDetail is the structured error in API responses.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ChatError is the internal error type carrying an error code.
// It implements the error interface and supports error wrapping via Unwrap.
type ChatError struct {
	Code    string
	Message string
	Err     error // wrapped original error
}

func (e *ChatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ChatError) Unwrap() error {
	return e.Err
}

// NewChatError creates a new ChatError.
func NewChatError(code, message string, err error) *ChatError {
	return &ChatError{Code: code, Message: message, Err: err}
}

// ToDetail converts an internal error to an API-facing ErrorDetail.
func (e *ChatError) ToDetail() *ErrorDetail {
	return &ErrorDetail{Code: e.Code, Message: e.Message}
}

// AsChatError reports whether a *ChatError is in err's chain and returns it.
func AsChatError(err error) (*ChatError, bool) {
	var ce *ChatError
	if errors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}
