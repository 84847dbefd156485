package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logmw "github.com/competecore/competecore/internal/middleware"
	"github.com/competecore/competecore/internal/testutil"
)

func TestStandardPanicLogCarriesRequestID(t *testing.T) {
	logger, logs := testutil.CaptureLogger()

	r := mux.NewRouter()
	r.Use(Standard(logger)...)
	r.HandleFunc("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(logmw.RequestIDHeader, "req-42")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get(logmw.RequestIDHeader))
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL_ERROR"`)
	assert.NotContains(t, rec.Body.String(), "boom")

	var panicLog map[string]any
	for _, line := range strings.Split(strings.TrimSpace(logs.String()), "\n") {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		if entry["msg"] == "panic recovered" {
			panicLog = entry
		}
	}
	require.NotNil(t, panicLog, "no panic log entry in %s", logs.String())
	assert.Equal(t, "req-42", panicLog["request_id"])
	assert.Equal(t, "api", panicLog["component"])

	// The request log still records the failure
	assert.Contains(t, logs.String(), `"status":500`)
}
