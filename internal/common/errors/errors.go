// Package errors provides the standardized error taxonomy shared by the HTTP endpoint and the job worker.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Validation errors: always raised before any external write.
const (
	ErrCodeMissingField        ErrorCode = "MISSING_FIELD"
	ErrCodeUnknownTier         ErrorCode = "UNKNOWN_TIER"
	ErrCodeInvalidRewardAmount ErrorCode = "INVALID_REWARD_AMOUNT"
	ErrCodeInvalidField        ErrorCode = "INVALID_FIELD"
	ErrCodeNotComputable       ErrorCode = "NOT_COMPUTABLE"
)

// Request errors: no processing attempted.
const (
	ErrCodeUnsupportedRequest ErrorCode = "UNSUPPORTED_REQUEST"
	ErrCodeMethodNotAllowed   ErrorCode = "METHOD_NOT_ALLOWED"
	ErrCodeInvalidBody        ErrorCode = "INVALID_BODY"
	ErrCodePayloadTooLarge    ErrorCode = "PAYLOAD_TOO_LARGE"
)

// Sink and rendering errors.
const (
	ErrCodeRenderFailed           ErrorCode = "RENDER_FAILED"
	ErrCodeUploadFailed           ErrorCode = "UPLOAD_FAILED"
	ErrCodeSheetAppendFailed      ErrorCode = "SHEET_APPEND_FAILED"
	ErrCodeRecordCreateFailed     ErrorCode = "RECORD_CREATE_FAILED"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeSinkTimeout            ErrorCode = "SINK_TIMEOUT"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.PublicMessage())
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// PublicMessage is the text returned to HTTP callers.
func (e *StandardError) PublicMessage() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

func newError(code ErrorCode, message, details string, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func NewMissingFieldError(field string) *StandardError {
	e := newError(ErrCodeMissingField, "Missing required field", field, nil)
	e.Metadata = map[string]interface{}{"field": field}
	return e
}

func NewUnknownTierError(brandKey, tierKey string) *StandardError {
	e := newError(ErrCodeUnknownTier, "Unknown retainer tier",
		fmt.Sprintf("tier %q is not offered by brand %q", tierKey, brandKey), nil)
	e.Metadata = map[string]interface{}{"brand": brandKey, "tier": tierKey}
	return e
}

func NewInvalidRewardAmountError(raw string) *StandardError {
	return newError(ErrCodeInvalidRewardAmount, "Invalid reward amount",
		fmt.Sprintf("%q is not a non-negative amount", raw), nil)
}

func NewInvalidFieldError(field, details string) *StandardError {
	e := newError(ErrCodeInvalidField, "Invalid field", fmt.Sprintf("%s: %s", field, details), nil)
	e.Metadata = map[string]interface{}{"field": field}
	return e
}

func NewNotComputableError(details string) *StandardError {
	return newError(ErrCodeNotComputable, "Invoice amount cannot be computed", details, nil)
}

func NewUnsupportedRequestError(details string) *StandardError {
	return newError(ErrCodeUnsupportedRequest, "Unsupported request", details, nil)
}

func NewMethodNotAllowedError(method string) *StandardError {
	return newError(ErrCodeMethodNotAllowed, "Method not allowed", method, nil)
}

func NewInvalidBodyError(err error) *StandardError {
	return newError(ErrCodeInvalidBody, "Invalid request format", err.Error(), err)
}

func NewPayloadTooLargeError(limit int64) *StandardError {
	return newError(ErrCodePayloadTooLarge, "Payload too large", fmt.Sprintf("limit is %d bytes", limit), nil)
}

func NewRenderFailedError(err error) *StandardError {
	return newError(ErrCodeRenderFailed, "Invoice rendering failed", err.Error(), err)
}

func NewUploadFailedError(filename string, err error) *StandardError {
	e := newError(ErrCodeUploadFailed, "Attachment upload failed", err.Error(), err)
	e.Retryable = true
	e.Metadata = map[string]interface{}{"filename": filename}
	return e
}

func NewSheetAppendFailedError(err error) *StandardError {
	e := newError(ErrCodeSheetAppendFailed, "Spreadsheet append failed", err.Error(), err)
	e.Retryable = true
	return e
}

func NewRecordCreateFailedError(err error) *StandardError {
	e := newError(ErrCodeRecordCreateFailed, "Failed to create record", err.Error(), err)
	e.Retryable = true
	return e
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	e := newError(ErrCodeNotificationSendFailed, "Notification delivery failed",
		fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()), err)
	e.Retryable = true
	return e
}

func NewSinkTimeoutError(sink string, err error) *StandardError {
	e := newError(ErrCodeSinkTimeout, fmt.Sprintf("Sink '%s' timeout", sink), err.Error(), err)
	e.Retryable = true
	e.Metadata = map[string]interface{}{"sink": sink}
	return e
}

func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), err)
}

// ==========================
// 4. Classification
// ==========================

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) {
		return NewSinkTimeoutError("unknown", err)
	}
	return NewInternalError(err)
}

// CodeOf returns the code of err, or INTERNAL_ERROR for foreign errors.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return ""
	}
	return Normalize(err).Code
}

// IsValidation reports whether code is raised before any external write.
func IsValidation(code ErrorCode) bool {
	switch code {
	case ErrCodeMissingField, ErrCodeUnknownTier, ErrCodeInvalidRewardAmount,
		ErrCodeInvalidField, ErrCodeNotComputable:
		return true
	}
	return false
}

// HTTPStatus maps an error code to the response status of the submission endpoint.
func HTTPStatus(code ErrorCode) int {
	switch {
	case IsValidation(code):
		return http.StatusBadRequest
	case code == ErrCodeUnsupportedRequest, code == ErrCodeInvalidBody:
		return http.StatusBadRequest
	case code == ErrCodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case code == ErrCodePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case IsValidation(code):
		return "VALIDATION"
	case code == ErrCodeUnsupportedRequest || code == ErrCodeMethodNotAllowed ||
		code == ErrCodeInvalidBody || code == ErrCodePayloadTooLarge:
		return "REQUEST"
	case strings.Contains(codeStr, "RENDER"):
		return "RENDER"
	case strings.Contains(codeStr, "UPLOAD") || strings.Contains(codeStr, "SHEET") ||
		strings.Contains(codeStr, "RECORD") || strings.Contains(codeStr, "SINK"):
		return "SINK"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	default:
		return "OTHER"
	}
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
// Submissions are never retried automatically, so Retries is always zero.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   0,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"errorCategory":     GetErrorCategory(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}
