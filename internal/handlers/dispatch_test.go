package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wnelson/dispatch-monitor/internal/models"
	"github.com/wnelson/dispatch-monitor/internal/store"
)

type fakeDispatchStore struct {
	lastFilter store.EventFilter
	lastPage   store.PageRequest
	lastSince  *time.Time
	lastLimit  int

	page  models.DispatchPage
	stats models.DispatchStats
	opts  models.FilterOptions
	err   error
}

func (f *fakeDispatchStore) ListEvents(_ context.Context, filter store.EventFilter, page store.PageRequest) (models.DispatchPage, error) {
	f.lastFilter = filter
	f.lastPage = page
	return f.page, f.err
}

func (f *fakeDispatchStore) LatestEvents(_ context.Context, since *time.Time, limit int) ([]models.DispatchEvent, error) {
	f.lastSince = since
	f.lastLimit = limit
	return f.page.Events, f.err
}

func (f *fakeDispatchStore) Stats(_ context.Context, _, _ string) (models.DispatchStats, error) {
	return f.stats, f.err
}

func (f *fakeDispatchStore) FilterOptions(_ context.Context) (models.FilterOptions, error) {
	return f.opts, f.err
}

func dispatchRouter(st DispatchStore) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterDispatchRoutes(r, st, zap.NewNop())
	return r
}

func TestListDispatchesPassesParameters(t *testing.T) {
	fake := &fakeDispatchStore{page: models.DispatchPage{Events: []models.DispatchEvent{}, Limit: 25, Pages: 0}}
	r := dispatchRouter(fake)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET",
		"/dispatches?startDate=2025-01-01&eventType=Fire&jurisdiction=Everett&search=main&sortBy=address&sortOrder=asc&limit=25&offset=50", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2025-01-01", fake.lastFilter.StartDate)
	assert.Equal(t, "Fire", fake.lastFilter.EventType)
	assert.Equal(t, "Everett", fake.lastFilter.Jurisdiction)
	assert.Equal(t, "main", fake.lastFilter.Search)
	assert.Equal(t, "address", fake.lastPage.SortBy)
	assert.Equal(t, "asc", fake.lastPage.SortOrder)
	assert.Equal(t, 25, fake.lastPage.Limit)
	assert.Equal(t, 50, fake.lastPage.Offset)
}

func TestListDispatchesDefaultsBadNumbers(t *testing.T) {
	fake := &fakeDispatchStore{}
	r := dispatchRouter(fake)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/dispatches?limit=banana&offset=", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, fake.lastPage.Limit)
	assert.Equal(t, 0, fake.lastPage.Offset)
}

func TestListDispatchesStoreError(t *testing.T) {
	r := dispatchRouter(&fakeDispatchStore{err: errors.New("pool exhausted")})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/dispatches", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	// Internal cause stays server-side.
	assert.NotContains(t, body["error"], "pool")
}

func TestLatestDispatchesSince(t *testing.T) {
	fake := &fakeDispatchStore{}
	r := dispatchRouter(fake)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET",
		"/dispatches/latest?since=2025-01-01T00:00:00Z&limit=10", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, fake.lastSince)
	assert.Equal(t, 2025, fake.lastSince.Year())
	assert.Equal(t, 10, fake.lastLimit)
}

func TestLatestDispatchesBadSince(t *testing.T) {
	r := dispatchRouter(&fakeDispatchStore{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/dispatches/latest?since=yesterday", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatsEndpoint(t *testing.T) {
	fake := &fakeDispatchStore{stats: models.DispatchStats{
		Total:          12,
		ByType:         map[string]int64{"fire": 7, "police": 5},
		UniqueAgencies: 3,
	}}
	r := dispatchRouter(fake)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/stats?startDate=2025-01-01", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var stats models.DispatchStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.EqualValues(t, 12, stats.Total)
	assert.EqualValues(t, 7, stats.ByType["fire"])
}

func TestFiltersEndpoint(t *testing.T) {
	fake := &fakeDispatchStore{opts: models.FilterOptions{
		AgencyTypes: []models.FilterOption{{Name: "Fire", Count: 10}},
		CallTypes:   []models.CallTypeOption{{Name: "Medic Response", AgencyType: "Fire", Count: 4}},
	}}
	r := dispatchRouter(fake)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/filters", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var opts models.FilterOptions
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &opts))
	require.Len(t, opts.AgencyTypes, 1)
	assert.Equal(t, "Fire", opts.AgencyTypes[0].Name)
	assert.Equal(t, "Fire", opts.CallTypes[0].AgencyType)
}
