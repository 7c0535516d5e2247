package routes

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-discovery/internal/app/domain/geolocation"
	"github.com/FACorreiaa/loci-discovery/internal/app/domain/places"
	"github.com/FACorreiaa/loci-discovery/internal/app/models"
	"github.com/FACorreiaa/loci-discovery/internal/pkg/config"
)

type stubPlaces struct{}

func (stubPlaces) Suggest(context.Context, places.SuggestRequest) ([]places.Suggestion, error) {
	return nil, nil
}

func (stubPlaces) Details(context.Context, string, places.SessionToken) (models.GeoPoint, error) {
	return models.GeoPoint{}, places.ErrNoResults
}

type stubLocator struct{}

func (stubLocator) Locate(context.Context, string) (geolocation.IPLocation, error) {
	return geolocation.IPLocation{}, geolocation.ErrPrivateAddress
}

func setup(t *testing.T) (*gin.Engine, pgxmock.PgxPoolIface) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	cfg := &config.Config{}
	cfg.Places.Countries = []string{"gb"}
	cfg.Discovery.PageLimit = 50
	cfg.AllowedOrigins = []string{"https://map.example"}

	r := gin.New()
	Setup(r, cfg, Dependencies{DB: mock, Places: stubPlaces{}, Locator: stubLocator{}}, zap.NewNop())
	return r, mock
}

func TestHealthz(t *testing.T) {
	r, mock := setup(t)

	mock.ExpectPing()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	mock.ExpectPing().WillReturnError(errors.New("down"))
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRoutesRegistered(t *testing.T) {
	r, _ := setup(t)
	paths := map[string]bool{}
	for _, rt := range r.Routes() {
		paths[rt.Method+" "+rt.Path] = true
	}
	for _, want := range []string{"GET /healthz", "GET /api/venues", "GET /api/events", "GET /api/geo-ip", "GET /ws/discovery"} {
		assert.True(t, paths[want], want)
	}
}

func TestGeoIPRoute(t *testing.T) {
	r, _ := setup(t)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/geo-ip", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventsRoute_QueriesActiveEvents(t *testing.T) {
	r, mock := setup(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM events e")).
		WithArgs("ACTIVE", "WORKSHOP", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnError(errors.New("db down"))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/events?type=workshop", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDiscoveryRoute_RejectsForeignOrigin(t *testing.T) {
	r, _ := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/ws/discovery", nil)
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")
	req.Header.Set("Origin", "https://evil.example")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
