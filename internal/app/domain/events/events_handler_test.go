package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/loci-discovery/internal/app/domain/geofilter"
	"github.com/FACorreiaa/loci-discovery/internal/app/models"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Fetch(ctx context.Context, where geofilter.Expr, params models.ListParams) (models.EventPage, error) {
	args := m.Called(ctx, where, params)
	return args.Get(0).(models.EventPage), args.Error(1)
}

func newTestRouter(repo Repository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewEventsHandler(repo, fixedClock, nil)
	r := gin.New()
	r.GET("/api/events", h.ListEvents)
	return r
}

func TestListEvents_BuildsFilterAndEchoesWhere(t *testing.T) {
	repo := new(MockRepository)
	from := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	expected := geofilter.And{
		geofilter.Eq{Field: "is_online", Value: true},
		geofilter.Eq{Field: "event_type", Value: "WORKSHOP"},
		geofilter.Or{
			geofilter.Range{Field: "end_date", Gte: &from},
			geofilter.Range{Field: "start_date", Gte: &from},
		},
	}
	repo.On("Fetch", mock.Anything, expected, models.ListParams{Limit: 5}).
		Return(models.EventPage{Count: 1, Total: 1, Items: []models.Event{{ID: "e1", Title: "Pottery"}}}, nil)

	w := httptest.NewRecorder()
	newTestRouter(repo).ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/api/events?type=workshop&online=true&from=2026-06-01T00:00:00Z&lat=50.45&lng=30.52&limit=5", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Total int              `json:"total"`
		Items []models.Event   `json:"items"`
		Where map[string][]any `json:"where"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, 1, got.Total)
	assert.Equal(t, "e1", got.Items[0].ID)
	assert.Len(t, got.Where["_and"], 3)
	repo.AssertExpectations(t)
}

func TestListEvents_DefaultsLowerBoundToNow(t *testing.T) {
	repo := new(MockRepository)
	repo.On("Fetch", mock.Anything, geofilter.And{
		geofilter.Or{
			geofilter.Range{Field: "end_date", Gte: &fixedNow},
			geofilter.Range{Field: "start_date", Gte: &fixedNow},
		},
	}, models.ListParams{}).Return(models.EventPage{}, nil)

	w := httptest.NewRecorder()
	newTestRouter(repo).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	repo.AssertExpectations(t)
}

func TestListEvents_BadRequests(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{name: "bad from", query: "from=yesterday"},
		{name: "to before from", query: "from=2026-06-02T00:00:00Z&to=2026-06-01T00:00:00Z"},
		{name: "lat without lng", query: "lat=50.45"},
		{name: "negative distance", query: "distance=-1"},
		{name: "online not bool", query: "online=maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			w := httptest.NewRecorder()
			newTestRouter(repo).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events?"+tt.query, nil))

			assert.Equal(t, http.StatusBadRequest, w.Code)
			repo.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestListEvents_RepositoryErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{err: fmt.Errorf("%w: cannot order by %q", models.ErrValidation, "status"), want: http.StatusBadRequest},
		{err: errors.New("db down"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		repo := new(MockRepository)
		repo.On("Fetch", mock.Anything, mock.Anything, mock.Anything).Return(models.EventPage{}, tt.err)

		w := httptest.NewRecorder()
		newTestRouter(repo).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events", nil))
		assert.Equal(t, tt.want, w.Code)
	}
}
