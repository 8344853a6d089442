package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(buf *bytes.Buffer) *chi.Mux {
	logger := slog.New(slog.NewJSONHandler(buf, nil))

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(NewStructuredLogger(logger))
	r.Get("/api/repos/{owner}/{name}/wallets", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("[]"))
	})
	r.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	return r
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestStructuredLogger_Completed(t *testing.T) {
	var buf bytes.Buffer
	router := newRouter(&buf)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/repos/john/test/wallets", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	line := decodeLine(t, &buf)
	assert.Equal(t, "INFO", line["level"])
	assert.Equal(t, "request completed", line["msg"])

	request := line["request"].(map[string]any)
	assert.Equal(t, "/api/repos/john/test/wallets", request["path"])
	assert.Equal(t, "/api/repos/{owner}/{name}/wallets", request["route"])
	assert.NotEmpty(t, request["id"])

	response := line["response"].(map[string]any)
	assert.EqualValues(t, http.StatusOK, response["status"])
	assert.EqualValues(t, 2, response["bytes"])
}

func TestStructuredLogger_ServerError(t *testing.T) {
	var buf bytes.Buffer
	router := newRouter(&buf)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/boom", nil))

	line := decodeLine(t, &buf)
	assert.Equal(t, "ERROR", line["level"])
	assert.Equal(t, "server error", line["msg"])
}
