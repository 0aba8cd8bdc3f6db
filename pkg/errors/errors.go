package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeNotFound               = "NOT_FOUND"
	CodeInvalidInput           = "INVALID_INPUT"
	CodeInvalidTime            = "INVALID_TIME"
	CodeInvalidReservationID   = "INVALID_RESERVATION_ID"
	CodeInvalidUserID          = "INVALID_USER_ID"
	CodeInvalidResourceID      = "INVALID_RESOURCE_ID"
	CodeFailedPrecondition     = "FAILED_PRECONDITION"
	CodeDBError                = "DB_ERROR"
	CodeUnknown                = "UNKNOWN"
	CodeInternal               = "INTERNAL_ERROR"
	CodeTimeout                = "TIMEOUT"
	CodeUnavailable            = "SERVICE_UNAVAILABLE"
	CodeNotImplemented         = "NOT_IMPLEMENTED"
	CodeUnsupportedContentType = "UNSUPPORTED_CONTENT_TYPE"
)

type AppError struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) StatusCode() int {
	return e.HTTPStatus
}

func (e *AppError) ToJSON() []byte {
	data, _ := json.Marshal(ErrorResponse{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
	return data
}

type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func New(code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
	}
}

func Wrap(err error, code, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Err:        err,
	}
}

func (e *AppError) WithDetails(details map[string]any) *AppError {
	e.Details = details
	return e
}

func NotFoundWithID(resource string, id any) *AppError {
	return &AppError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details: map[string]any{
			"resource": resource,
			"id":       id,
		},
	}
}

func InvalidInput(message string) *AppError {
	return &AppError{
		Code:       CodeInvalidInput,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// BadRequest is InvalidInput with a caller-chosen code.
func BadRequest(code, message string, err error) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func FailedPrecondition(message string, details map[string]any) *AppError {
	return &AppError{
		Code:       CodeFailedPrecondition,
		Message:    message,
		HTTPStatus: http.StatusConflict,
		Details:    details,
	}
}

func DBError(err error) *AppError {
	return &AppError{
		Code:       CodeDBError,
		Message:    "database error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Unknown(err error) *AppError {
	return &AppError{
		Code:       CodeUnknown,
		Message:    "unknown error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Internal(message string, err error) *AppError {
	return &AppError{
		Code:       CodeInternal,
		Message:    message,
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func Timeout(message string) *AppError {
	return &AppError{
		Code:       CodeTimeout,
		Message:    message,
		HTTPStatus: http.StatusGatewayTimeout,
	}
}

func Unavailable(service string) *AppError {
	return &AppError{
		Code:       CodeUnavailable,
		Message:    fmt.Sprintf("%s is temporarily unavailable", service),
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

func NotImplemented(operation string) *AppError {
	return &AppError{
		Code:       CodeNotImplemented,
		Message:    fmt.Sprintf("%s is not implemented", operation),
		HTTPStatus: http.StatusNotImplemented,
	}
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal("An unexpected error occurred", err)
}
