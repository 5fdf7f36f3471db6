package shared

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requestWithLogger(t *testing.T, buf *bytes.Buffer) *http.Request {
	t.Helper()
	l := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	ctx := logger.WithLogger(context.Background(), l)
	ctx = WithTraceID(ctx, "trace-1234")
	return httptest.NewRequest(http.MethodGet, "/task/list", nil).WithContext(ctx)
}

func TestRespondWithJSON(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	RespondWithJSON(w, r, http.StatusCreated, map[string]interface{}{"success": true})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"success":true}`, w.Body.String())
}

func TestRespondWithError(t *testing.T) {
	var logs bytes.Buffer
	w := httptest.NewRecorder()

	RespondWithError(w, requestWithLogger(t, &logs), http.StatusNotFound, "Task not found")

	assert.Equal(t, http.StatusNotFound, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.Equal(t, "Task not found", body.Message)
	assert.Equal(t, "trace-1234", body.TraceID)
}

func TestRespondWithErrorAndLog(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		opts      []ResponseOption
		wantLevel string
	}{
		{"server error", http.StatusInternalServerError, nil, "ERROR"},
		{"client error", http.StatusBadRequest, nil, "DEBUG"},
		{"rate limited", http.StatusTooManyRequests, nil, "WARN"},
		{"elevated client error", http.StatusUnauthorized, []ResponseOption{WithElevatedLogLevel()}, "WARN"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var logs bytes.Buffer
			w := httptest.NewRecorder()
			err := errors.New("query postgres://tasks:hunter22@db/tasks failed")

			RespondWithErrorAndLog(w, requestWithLogger(t, &logs), tc.status, "An unexpected error occurred", err, tc.opts...)

			assert.Equal(t, tc.status, w.Code)
			assert.NotContains(t, w.Body.String(), "hunter22")
			assert.NotContains(t, w.Body.String(), "postgres")

			var entry map[string]interface{}
			require.NoError(t, json.Unmarshal(bytes.TrimSpace(logs.Bytes()), &entry))
			assert.Equal(t, tc.wantLevel, entry["level"])
			assert.Equal(t, "API error response", entry["msg"])
			assert.NotContains(t, entry["error"], "hunter22")
		})
	}
}
