package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/morgankhalil/venueconnect/internal/cache"
	"github.com/morgankhalil/venueconnect/internal/config"
	"github.com/morgankhalil/venueconnect/internal/logging"
	"github.com/morgankhalil/venueconnect/internal/optimizer"
	"github.com/morgankhalil/venueconnect/internal/store"
	"github.com/morgankhalil/venueconnect/internal/tour"
)

func testRouter(t *testing.T, results *cache.ResultCache) (chi.Router, *store.MemoryStore) {
	t.Helper()
	return testRouterWithConfig(t, &config.Config{}, results)
}

func testRouterWithConfig(t *testing.T, cfg *config.Config, results *cache.ResultCache) (chi.Router, *store.MemoryStore) {
	t.Helper()

	st := store.NewMemoryStore()
	st.PutTour(&tour.Tour{ID: 1, Name: "Summer Run", ArtistID: 5})
	st.PutArtist(&tour.Artist{ID: 5, Name: "The Midnight Echo"})

	date := tour.NewDay(2025, time.June, 1)
	lastDate := tour.NewDay(2025, time.June, 20)
	lat1, lon1 := 47.6062, -122.3321
	lat2, lon2 := 34.0522, -118.2437
	lat3, lon3 := 45.5152, -122.6784
	st.PutStop(&tour.Stop{ID: 10, TourID: 1, VenueName: "The Crocodile", City: "Seattle", Latitude: &lat1, Longitude: &lon1, Status: tour.StatusConfirmed, Date: &date, Sequence: 0})
	st.PutStop(&tour.Stop{ID: 11, TourID: 1, VenueName: "The Troubadour", City: "Los Angeles", Latitude: &lat2, Longitude: &lon2, Status: tour.StatusConfirmed, Date: &lastDate, Sequence: 1})
	st.PutStop(&tour.Stop{ID: 12, TourID: 1, VenueName: "Doug Fir", City: "Portland", Latitude: &lat3, Longitude: &lon3, Status: tour.StatusPotential, Sequence: 2})

	logger := logging.New(logging.ErrorLevel, io.Discard)
	orch := optimizer.NewOrchestrator(optimizer.NewDeterministic(), nil, logger)
	applier := optimizer.NewApplier(st, logger)

	srv := NewServer(cfg, logger, st, orch, applier, results)
	r := chi.NewRouter()
	srv.RegisterRoutes(r)
	return r, st
}

func doJSON(t *testing.T, r chi.Router, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestOptimizeDefaultsToAuto(t *testing.T) {
	r, _ := testRouter(t, nil)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/optimize/1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		TourData           *tour.Snapshot `json:"tourData"`
		OptimizationResult *tour.Result   `json:"optimizationResult"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.TourData)
	require.NotNil(t, resp.OptimizationResult)

	assert.Equal(t, "Summer Run", resp.TourData.TourName)
	assert.Equal(t, []int64{10, 12, 11}, resp.OptimizationResult.Sequence)

	// Auto with no AI collaborator configured is a degraded fallback.
	assert.True(t, resp.OptimizationResult.Degraded)
	assert.Equal(t, tour.MethodStandard, resp.OptimizationResult.Method)
}

func TestOptimizeStandardWithOptions(t *testing.T) {
	r, _ := testRouter(t, nil)

	body := `{"method": "standard", "optimizeFor": "distance", "venuePriorities": {"12": 8}}`
	rec := doJSON(t, r, http.MethodPost, "/api/v1/optimize/1", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		OptimizationResult *tour.Result `json:"optimizationResult"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.OptimizationResult)
	assert.False(t, resp.OptimizationResult.Degraded)
	assert.Equal(t, tour.MethodStandard, resp.OptimizationResult.Method)
	assert.ElementsMatch(t, []int64{10, 11, 12}, resp.OptimizationResult.Sequence)
}

func TestOptimizeInheritsConfiguredSpacing(t *testing.T) {
	cfg := &config.Config{}
	cfg.Optimization.MinDaysBetweenShows = 3
	cfg.Optimization.MaxDaysBetweenShows = 10
	r, _ := testRouterWithConfig(t, cfg, nil)

	var resp struct {
		OptimizationResult *tour.Result `json:"optimizationResult"`
	}

	// A request without spacing constraints takes the configured minimum:
	// the undated stop lands three days after the confirmed show.
	rec := doJSON(t, r, http.MethodPost, "/api/v1/optimize/1", `{"method": "standard"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.OptimizationResult.SuggestedDates, int64(12))
	assert.Equal(t, "2025-06-04", resp.OptimizationResult.SuggestedDates[12].String())

	// An explicit request value overrides the configuration.
	rec = doJSON(t, r, http.MethodPost, "/api/v1/optimize/1", `{"method": "standard", "minDaysBetweenShows": 2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Contains(t, resp.OptimizationResult.SuggestedDates, int64(12))
	assert.Equal(t, "2025-06-03", resp.OptimizationResult.SuggestedDates[12].String())
}

func TestOptimizeRejectsBadRequests(t *testing.T) {
	r, _ := testRouter(t, nil)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/api/v1/optimize/abc", "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/api/v1/optimize/-3", "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/api/v1/optimize/1", `{"method": "quantum"}`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/api/v1/optimize/1", `{not json`).Code)
}

func TestOptimizeUnknownTour(t *testing.T) {
	r, _ := testRouter(t, nil)

	rec := doJSON(t, r, http.MethodPost, "/api/v1/optimize/999", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "failed to load tour data")
}

func TestOptimizeStandardUsesCache(t *testing.T) {
	mr := miniredis.RunT(t)
	results := cache.New(mr.Addr(), time.Minute, nil)
	defer results.Close()

	r, _ := testRouter(t, results)

	body := `{"method": "standard"}`
	first := doJSON(t, r, http.MethodPost, "/api/v1/optimize/1", body)
	require.Equal(t, http.StatusOK, first.Code)
	require.NotEmpty(t, mr.Keys(), "a standard result must land in the cache")

	second := doJSON(t, r, http.MethodPost, "/api/v1/optimize/1", body)
	require.Equal(t, http.StatusOK, second.Code)

	var a, b struct {
		OptimizationResult *tour.Result `json:"optimizationResult"`
	}
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.Equal(t, a.OptimizationResult.Sequence, b.OptimizationResult.Sequence)
}

func TestApplyWritesAndReports(t *testing.T) {
	r, st := testRouter(t, nil)

	body := `{"optimizedSequence": [10, 12, 11], "suggestedDates": {"12": "2025-06-02"}}`
	rec := doJSON(t, r, http.MethodPost, "/api/v1/apply/1", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Success bool                    `json:"success"`
		Metrics *optimizer.ApplyMetrics `json:"metrics"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Metrics)
	assert.Equal(t, 3, resp.Metrics.UpdatedStops)

	stops, err := st.ListStops(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, stops, 3)
	assert.Equal(t, int64(10), stops[0].ID)
	assert.Equal(t, int64(12), stops[1].ID)
	assert.Equal(t, int64(11), stops[2].ID)
	assert.Equal(t, tour.StatusHold, stops[1].Status)
	require.NotNil(t, stops[1].Date)
	assert.Equal(t, "2025-06-02", stops[1].Date.String())
}

func TestApplyRejectsBadRequests(t *testing.T) {
	r, _ := testRouter(t, nil)

	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/api/v1/apply/abc", `{"optimizedSequence": [1]}`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/api/v1/apply/1", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/api/v1/apply/1", "").Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(t, r, http.MethodPost, "/api/v1/apply/1", `{broken`).Code)
}
