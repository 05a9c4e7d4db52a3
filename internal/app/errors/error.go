package errors

import (
	"net/http"
	"reflect"

	"github.com/sirupsen/logrus"
)

// Machine-readable reason codes. Callers branch on these, never on messages.
const (
	CodeBadRequest       = "BAD_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeNotFound         = "NOT_FOUND"
	CodeNotActive        = "NOT_ACTIVE"
	CodeExpired          = "EXPIRED"
	CodeAlreadyClaimed   = "ALREADY_CLAIMED"
	CodeExhausted        = "EXHAUSTED"
	CodeInvalidAmount    = "INVALID_AMOUNT"
	CodeInsufficientPool = "INSUFFICIENT_POOL"
	CodeNotCancelled     = "NOT_CANCELLED"
	CodeCannotEnd        = "CANNOT_END"
	CodeConflict         = "CONFLICT"
	CodeRateLimited      = "RATE_LIMITED"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeInternal         = "INTERNAL"
)

type AppError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewAppError(statusCode int, code, message string) *AppError {
	return &AppError{
		StatusCode: statusCode,
		Code:       code,
		Message:    message,
	}
}

func NewBadRequestError(message string) *AppError {
	return NewAppError(http.StatusBadRequest, CodeBadRequest, message)
}

func NewUnauthorizedError(message ...string) *AppError {
	if len(message) > 0 {
		return NewAppError(http.StatusUnauthorized, CodeUnauthorized, message[0])
	}
	return NewAppError(http.StatusUnauthorized, CodeUnauthorized, "Unauthorized")
}

func NewForbiddenError(message string) *AppError {
	return NewAppError(http.StatusForbidden, CodeForbidden, message)
}

func NewNotFoundError(message string) *AppError {
	return NewAppError(http.StatusNotFound, CodeNotFound, message)
}

// NewRuleError is used for business-rule rejections (claim and lifecycle).
// They all map to 409 so that clients can distinguish them from malformed
// requests.
func NewRuleError(code, message string) *AppError {
	return NewAppError(http.StatusConflict, code, message)
}

func NewConflictError(message string) *AppError {
	return NewAppError(http.StatusConflict, CodeConflict, message)
}

func NewTooManyRequestsError(message string) *AppError {
	return NewAppError(http.StatusTooManyRequests, CodeRateLimited, message)
}

func NewStoreUnavailableError(originalError error) *AppError {
	logrus.Errorf("[%s] %s", reflect.TypeOf(originalError).String(), originalError)
	return NewAppError(http.StatusServiceUnavailable, CodeStoreUnavailable, "Store unavailable, retry later")
}

func NewInternalServerError(originalError error, message string) *AppError {
	logrus.Errorf("[%s] %s", reflect.TypeOf(originalError).String(), originalError)
	return NewAppError(http.StatusInternalServerError, CodeInternal, message)
}

// Is reports whether err is an AppError carrying the given reason code.
func Is(err error, code string) bool {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code == code
	}
	return false
}
