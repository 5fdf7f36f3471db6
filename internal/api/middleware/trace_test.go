package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/phrazzld/tasks-api/internal/api/shared"
	"github.com/phrazzld/tasks-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTraceMiddleware(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		reuse    bool
	}{
		{name: "generates trace id", incoming: ""},
		{name: "reuses valid incoming id", incoming: "client-trace-0001", reuse: true},
		{name: "replaces malformed id", incoming: "bad id"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var logs bytes.Buffer
			base := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

			var ctxTraceID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxTraceID = shared.GetTraceID(r.Context())
				logger.FromContext(r.Context()).Info("inside handler")
			})

			req := httptest.NewRequest(http.MethodGet, "/health", nil)
			if tc.incoming != "" {
				req.Header.Set(shared.TraceIDHeader, tc.incoming)
			}
			rec := httptest.NewRecorder()

			TraceMiddleware(base)(next).ServeHTTP(rec, req)

			require.NotEmpty(t, ctxTraceID)
			assert.Equal(t, ctxTraceID, rec.Header().Get(shared.TraceIDHeader))
			if tc.reuse {
				assert.Equal(t, tc.incoming, ctxTraceID)
			} else {
				assert.NotEqual(t, tc.incoming, ctxTraceID)
			}

			lines := bytes.Split(bytes.TrimSpace(logs.Bytes()), []byte("\n"))
			require.Len(t, lines, 2)
			for _, line := range lines {
				var entry map[string]interface{}
				require.NoError(t, json.Unmarshal(line, &entry))
				assert.Equal(t, ctxTraceID, entry["trace_id"])
			}
		})
	}
}
