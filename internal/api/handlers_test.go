package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/listing-harvester/internal/harvest"
)

func get(t *testing.T, h http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHandlers(t *testing.T) {
	state := harvest.NewRunState()
	router := NewHandlers(state, nil).Router()

	t.Run("health", func(t *testing.T) {
		rec, body := get(t, router, "/health")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, state.ID().String(), body["run_id"])
	})

	t.Run("status reports filter in flight", func(t *testing.T) {
		require.NoError(t, state.Begin("Go Engineers"))
		_, _, err := state.Merge([]string{"a", "b", "c"})
		require.NoError(t, err)

		rec, body := get(t, router, "/api/v1/status")
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		assert.Equal(t, "Go Engineers", body["current_filter"])
		assert.Equal(t, float64(3), body["current_count"])
		assert.Equal(t, float64(1), body["current_pages"])
	})

	t.Run("completed is an empty list before any write", func(t *testing.T) {
		_, body := get(t, router, "/api/v1/status/completed")
		assert.Equal(t, []interface{}{}, body["completed"])
	})

	t.Run("unknown route", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/filters", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
