package errors

import (
	"fmt"
	"net/http"
)

// ApiError is the JSON error envelope returned by every handler.
type ApiError struct {
	Code      int    `json:"code"`
	Message   string `json:"message"`
	Detail    string `json:"detail,omitempty"`
	RequestID string `json:"request_id,omitempty"`

	// Fallback carries data the caller should not lose even though the
	// operation failed, e.g. the raw AI response when the optimized
	// resume could not be parsed out of it.
	Fallback string `json:"optimizedResume,omitempty"`
}

var (
	ErrBadRequest       = func(detail string) *ApiError { return New(http.StatusBadRequest, "Bad Request", detail) }
	ErrUnauthorized     = func(detail string) *ApiError { return New(http.StatusUnauthorized, "Unauthorized", detail) }
	ErrForbidden        = func(detail string) *ApiError { return New(http.StatusForbidden, "Forbidden", detail) }
	ErrNotFound         = func(detail string) *ApiError { return New(http.StatusNotFound, "Not Found", detail) }
	ErrMethodNotAllowed = func(detail string) *ApiError { return New(http.StatusMethodNotAllowed, "Method Not Allowed", detail) }
	ErrConflict         = func(detail string) *ApiError { return New(http.StatusConflict, "Conflict", detail) }
	ErrInternalServer   = func(detail string) *ApiError {
		return New(http.StatusInternalServerError, "Internal Server Error", detail)
	}
	ErrServiceUnavailable = func(detail string) *ApiError {
		return New(http.StatusServiceUnavailable, "Service Unavailable", detail)
	}

	// ErrNoCredential means neither a personal nor a shared Gemini key
	// could be resolved for the caller.
	ErrNoCredential = func(detail string) *ApiError { return New(http.StatusBadRequest, "No API Key Available", detail) }

	// ErrDailyLimitExceeded is deliberately distinct from a generic error
	// so the UI can offer the upgrade path (adding a personal key).
	ErrDailyLimitExceeded = func(detail string) *ApiError {
		return New(http.StatusTooManyRequests, "Daily Limit Exceeded", detail)
	}

	ErrAIGateway = func(detail string) *ApiError { return New(http.StatusBadGateway, "AI Request Failed", detail) }

	ErrUnparsableResponse = func(detail string) *ApiError {
		return New(http.StatusBadGateway, "Unparsable AI Response", detail)
	}
)

func New(code int, message, detail string) *ApiError {
	return &ApiError{
		Code:    code,
		Message: message,
		Detail:  detail,
	}
}

func (e *ApiError) WithRequestID(requestID string) *ApiError {
	e.RequestID = requestID
	return e
}

func (e *ApiError) WithFallback(raw string) *ApiError {
	e.Fallback = raw
	return e
}

func (e *ApiError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}

func (e *ApiError) StatusCode() int {
	return e.Code
}
