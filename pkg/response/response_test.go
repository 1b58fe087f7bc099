package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	customError "github.com/segyhp/fund-ledger/pkg/errors"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: customError.WrapInvalidAmount(0, "must be positive"), want: http.StatusBadRequest},
		{name: "eligibility", err: customError.WrapNotEligible("m1", []string{"x"}), want: http.StatusUnprocessableEntity},
		{name: "state conflict", err: customError.WrapAlreadyPaid("l1", 1), want: http.StatusConflict},
		{name: "not found", err: customError.WrapLoanNotFound("l1"), want: http.StatusNotFound},
		{name: "concurrency", err: customError.WrapConcurrencyConflict("deposit", 5), want: http.StatusServiceUnavailable},
		{name: "database", err: customError.WrapDatabaseError(errors.New("boom")), want: http.StatusInternalServerError},
		{name: "wrapped business error", err: fmt.Errorf("handler: %w", customError.WrapLoanNotFound("l1")), want: http.StatusNotFound},
		{name: "plain error", err: errors.New("boom"), want: http.StatusInternalServerError},
		{name: "deadline", err: context.DeadlineExceeded, want: http.StatusGatewayTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}

func TestFromError(t *testing.T) {
	t.Run("business error keeps code and reasons", func(t *testing.T) {
		w := httptest.NewRecorder()
		w.Header().Set(RequestIDHeader, "req-1")

		FromError(w, customError.WrapNotEligible("m1", []string{"already has an active loan"}))

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		var body ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, customError.ErrCodeNotEligible, body.Code)
		assert.Equal(t, []string{"already has an active loan"}, body.Reasons)
		assert.Equal(t, "req-1", body.RequestID)
	})

	t.Run("internal details are not exposed", func(t *testing.T) {
		w := httptest.NewRecorder()

		FromError(w, customError.WrapDatabaseError(errors.New("password authentication failed")))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "password")
		assert.Contains(t, w.Body.String(), customError.ErrCodeDatabaseError)
	})
}

func TestSuccessEnvelope(t *testing.T) {
	w := httptest.NewRecorder()

	Created(w, map[string]int{"balance": 15000})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body struct {
		Success bool           `json:"success"`
		Data    map[string]int `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, 15000, body.Data["balance"])
}

func TestMiddleware(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = w.Header().Get(RequestIDHeader)
		w.WriteHeader(http.StatusTeapot)
	})
	handler := RequestIDMiddleware(LoggingMiddleware(zap.NewNop())(next))

	t.Run("assigns a request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.Equal(t, http.StatusTeapot, w.Code)
		assert.NotEmpty(t, seen)
		assert.Equal(t, seen, w.Header().Get(RequestIDHeader))
	})

	t.Run("keeps the caller's request id", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.Header.Set(RequestIDHeader, "abc")
		handler.ServeHTTP(w, r)

		assert.Equal(t, "abc", w.Header().Get(RequestIDHeader))
	})

	t.Run("cors preflight", func(t *testing.T) {
		w := httptest.NewRecorder()
		CORSMiddleware(next).ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/api/v1/loans", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestLoggingMiddleware_EncodeFailure(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	handler := LoggingMiddleware(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		Success(w, map[string]interface{}{"bad": make(chan int)})
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/loans/l1", nil))

	entries := logs.FilterMessage("failed to encode response").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Contains(t, entries[0].ContextMap()["error"], "unsupported type")
	assert.Equal(t, int64(http.StatusOK), entries[0].ContextMap()["status"])
}

func TestWrite_EncodeFailureWithoutMiddleware(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	Success(httptest.NewRecorder(), make(chan int))

	assert.Equal(t, 1, logs.FilterMessage("failed to encode response").Len())
}
