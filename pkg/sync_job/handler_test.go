package sync_job

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klokku/calsync/internal/rest"
	"github.com/klokku/calsync/pkg/planner"
	"github.com/klokku/calsync/pkg/reconcile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_TriggerSync(t *testing.T) {
	t.Run("should return the sync report", func(t *testing.T) {
		// given
		job, _, _ := setupJob(t, planner.NewStubProvider(standup()))
		handler := NewHandler(job)
		req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
		w := httptest.NewRecorder()

		// when
		handler.TriggerSync(w, req)

		// then
		assert.Equal(t, http.StatusOK, w.Code)
		var report reconcile.SyncReport
		require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
		assert.Equal(t, []string{"a"}, report.Created)
		assert.False(t, report.DryRun)
	})

	t.Run("should honour the dryRun parameter", func(t *testing.T) {
		// given
		job, cal, _ := setupJob(t, planner.NewStubProvider(standup()))
		handler := NewHandler(job)
		req := httptest.NewRequest(http.MethodPost, "/api/sync?dryRun=true", nil)
		w := httptest.NewRecorder()

		// when
		handler.TriggerSync(w, req)

		// then
		assert.Equal(t, http.StatusOK, w.Code)
		var report reconcile.SyncReport
		require.NoError(t, json.NewDecoder(w.Body).Decode(&report))
		assert.True(t, report.DryRun)
		assert.Empty(t, cal.Calls())
	})

	t.Run("should reject an invalid dryRun parameter", func(t *testing.T) {
		// given
		job, _, _ := setupJob(t, planner.NewStubProvider())
		handler := NewHandler(job)
		req := httptest.NewRequest(http.MethodPost, "/api/sync?dryRun=maybe", nil)
		w := httptest.NewRecorder()

		// when
		handler.TriggerSync(w, req)

		// then
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should report a failed run as bad gateway", func(t *testing.T) {
		// given
		provider := planner.NewStubProvider()
		provider.SetError(errors.New("notion unavailable"))
		job, _, _ := setupJob(t, provider)
		handler := NewHandler(job)
		req := httptest.NewRequest(http.MethodPost, "/api/sync", nil)
		w := httptest.NewRecorder()

		// when
		handler.TriggerSync(w, req)

		// then
		assert.Equal(t, http.StatusBadGateway, w.Code)
		var response rest.ErrorResponse
		require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
		assert.Equal(t, "Sync failed", response.Error)
		assert.Contains(t, response.Details, "notion unavailable")
	})
}

func TestHandler_Health(t *testing.T) {
	t.Run("should report ok before the first run", func(t *testing.T) {
		// given
		job, _, _ := setupJob(t, planner.NewStubProvider())
		handler := NewHandler(job)
		w := httptest.NewRecorder()

		// when
		handler.Health(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		// then
		assert.Equal(t, http.StatusOK, w.Code)
		var health HealthDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&health))
		assert.Equal(t, "ok", health.Status)
		assert.Nil(t, health.LastRun)
	})

	t.Run("should include the last run", func(t *testing.T) {
		// given
		job, _, _ := setupJob(t, planner.NewStubProvider(standup()))
		handler := NewHandler(job)
		handler.TriggerSync(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/sync", nil))
		w := httptest.NewRecorder()

		// when
		handler.Health(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		// then
		var health HealthDTO
		require.NoError(t, json.NewDecoder(w.Body).Decode(&health))
		require.NotNil(t, health.LastRun)
		require.NotNil(t, health.LastRun.Report)
		assert.Equal(t, []string{"a"}, health.LastRun.Report.Created)
	})
}
