package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/grmr/account-service/internal/middlewares"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerMiddleware(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		body          string
		expectedLevel zapcore.Level
	}{
		{name: "implicit ok", status: 0, body: "hello", expectedLevel: zapcore.InfoLevel},
		{name: "created", status: http.StatusCreated, body: "{}", expectedLevel: zapcore.InfoLevel},
		{name: "not found", status: http.StatusNotFound, expectedLevel: zapcore.WarnLevel},
		{name: "server error", status: http.StatusInternalServerError, expectedLevel: zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			core, logs := observer.New(zapcore.DebugLevel)
			handler := middlewares.RequestIDMiddleware(LoggerMiddleware(zap.New(core))(
				http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					if tt.status != 0 {
						w.WriteHeader(tt.status)
					}
					w.Write([]byte(tt.body))
				})))

			req := httptest.NewRequest(http.MethodGet, "/grmr/get-users?page=2", nil)
			req.Header.Set(middlewares.RequestIDHeader, "req-42")
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			require.Equal(t, 1, logs.Len())
			entry := logs.All()[0]
			fields := entry.ContextMap()
			assert.Equal(t, tt.expectedLevel, entry.Level)
			assert.Equal(t, "HTTP request", entry.Message)
			assert.Equal(t, "req-42", fields["request_id"])
			assert.Equal(t, "GET", fields["method"])
			assert.Equal(t, "/grmr/get-users", fields["path"])
			assert.Equal(t, "page=2", fields["query"])
			expectedStatus := tt.status
			if expectedStatus == 0 {
				expectedStatus = http.StatusOK
			}
			assert.EqualValues(t, expectedStatus, fields["status"])
			assert.EqualValues(t, len(tt.body), fields["bytes"])
		})
	}
}

func TestResponseWriter_KeepsFirstStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, statusCode: http.StatusOK}

	rw.WriteHeader(http.StatusAccepted)
	rw.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusAccepted, rw.statusCode)
	assert.Equal(t, rec, rw.Unwrap())
}
