package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   &AppError{Code: CodeNotFound, Message: "reservation not found"},
			expected: "NOT_FOUND: reservation not found",
		},
		{
			name: "with underlying error",
			appErr: &AppError{
				Code:    CodeDBError,
				Message: "database error",
				Err:     errors.New("connection refused"),
			},
			expected: "DB_ERROR: database error (caused by: connection refused)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.appErr.Error())
		})
	}
}

func TestAppError_Unwrap(t *testing.T) {
	original := errors.New("original error")
	appErr := Wrap(original, CodeInternal, "wrapped", http.StatusInternalServerError)

	assert.Same(t, original, errors.Unwrap(appErr))
	assert.ErrorIs(t, appErr, original)
}

func TestConstructors(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"not found", NotFoundWithID("Reservation", int64(7)), CodeNotFound, http.StatusNotFound},
		{"invalid input", InvalidInput("bad"), CodeInvalidInput, http.StatusBadRequest},
		{"bad request", BadRequest(CodeInvalidTime, "bad time", cause), CodeInvalidTime, http.StatusBadRequest},
		{"failed precondition", FailedPrecondition("overlap", nil), CodeFailedPrecondition, http.StatusConflict},
		{"db error", DBError(cause), CodeDBError, http.StatusInternalServerError},
		{"unknown", Unknown(cause), CodeUnknown, http.StatusInternalServerError},
		{"internal", Internal("oops", cause), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("store"), CodeUnavailable, http.StatusServiceUnavailable},
		{"not implemented", NotImplemented("listen"), CodeNotImplemented, http.StatusNotImplemented},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode())
		})
	}
}

func TestNotFoundWithID_Details(t *testing.T) {
	err := NotFoundWithID("Reservation", int64(12345))

	assert.Equal(t, "Reservation not found", err.Message)
	assert.Equal(t, "Reservation", err.Details["resource"])
	assert.Equal(t, int64(12345), err.Details["id"])
}

func TestAsAppError(t *testing.T) {
	appErr := NotFoundWithID("Reservation", int64(1))
	assert.Same(t, appErr, AsAppError(appErr))

	wrapped := fmt.Errorf("service: %w", appErr)
	assert.True(t, IsAppError(wrapped))
	assert.Same(t, appErr, AsAppError(wrapped))

	regular := errors.New("regular error")
	assert.False(t, IsAppError(regular))
	result := AsAppError(regular)
	assert.Equal(t, CodeInternal, result.Code)
	assert.Same(t, regular, result.Err)
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, FailedPrecondition("reservation conflicts with an existing one", map[string]any{"raw": "x"}))

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, CodeFailedPrecondition, body.Code)
	assert.Equal(t, "x", body.Details["raw"])
}

func TestAppError_ToJSON(t *testing.T) {
	data := NotFoundWithID("Reservation", int64(3)).ToJSON()

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, CodeNotFound, body.Code)
	assert.Equal(t, "Reservation not found", body.Message)
}
