package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-discovery/internal/app/domain/geolocation"
	"github.com/FACorreiaa/loci-discovery/internal/app/domain/places"
	"github.com/FACorreiaa/loci-discovery/internal/app/models"
	"github.com/FACorreiaa/loci-discovery/internal/pkg/config"
	"github.com/FACorreiaa/loci-discovery/internal/routes"
)

type noPlaces struct{}

func (noPlaces) Suggest(context.Context, places.SuggestRequest) ([]places.Suggestion, error) {
	return nil, nil
}

func (noPlaces) Details(context.Context, string, places.SessionToken) (models.GeoPoint, error) {
	return models.GeoPoint{}, places.ErrNoResults
}

type noLocator struct{}

func (noLocator) Locate(context.Context, string) (geolocation.IPLocation, error) {
	return geolocation.IPLocation{}, geolocation.ErrPrivateAddress
}

func TestSetupRouter_Middleware(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()
	mock.ExpectPing()

	cfg := &config.Config{}
	cfg.Observability.ServiceName = "loci-discovery-test"
	cfg.AllowedOrigins = []string{"https://map.example"}
	r := SetupRouter(cfg, routes.Dependencies{DB: mock, Places: noPlaces{}, Locator: noLocator{}}, zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("Origin", "https://map.example")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://map.example", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
}

func TestHTTPServer(t *testing.T) {
	s := &Server{cfg: &config.Config{ServerPort: "8091"}}
	s.SetRouter(http.NotFoundHandler())
	srv := s.HTTPServer()
	assert.Equal(t, ":8091", srv.Addr)
	assert.Zero(t, srv.WriteTimeout)
	s.Close()
}

func TestHTTPServer_RunsShutdownHooks(t *testing.T) {
	s := &Server{cfg: &config.Config{ServerPort: "0"}}
	s.SetRouter(http.NotFoundHandler())

	closed := make(chan struct{})
	s.OnShutdown(func() { close(closed) })
	srv := s.HTTPServer()

	require.NoError(t, srv.Shutdown(context.Background()))
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("shutdown hook did not run")
	}
}
