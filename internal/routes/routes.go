package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-discovery/internal/app/domain/discovery"
	"github.com/FACorreiaa/loci-discovery/internal/app/domain/events"
	"github.com/FACorreiaa/loci-discovery/internal/app/domain/geolocation"
	"github.com/FACorreiaa/loci-discovery/internal/app/domain/places"
	"github.com/FACorreiaa/loci-discovery/internal/app/domain/venues"
	"github.com/FACorreiaa/loci-discovery/internal/app/middleware"
	"github.com/FACorreiaa/loci-discovery/internal/app/models"
	"github.com/FACorreiaa/loci-discovery/internal/pkg/clock"
	"github.com/FACorreiaa/loci-discovery/internal/pkg/config"
)

// Database is the subset of *pgxpool.Pool used by the routes.
type Database interface {
	venues.Querier
	Ping(ctx context.Context) error
}

type AppHandlers struct {
	Venues    *venues.VenuesHandler
	Events    *events.EventsHandler
	GeoIP     *geolocation.GeoIPHandler
	Discovery *discovery.Handler
}

// Dependencies lets callers replace the external collaborators. Nil fields
// are built from configuration.
type Dependencies struct {
	DB      Database
	Places  places.Provider
	Locator geolocation.IPResolver
	// OnShutdown, when set, receives cleanup for connections the HTTP server
	// does not track itself.
	OnShutdown func(func())
}

func NewAppHandlers(cfg *config.Config, deps Dependencies, log *zap.Logger) *AppHandlers {
	httpClient := &http.Client{Timeout: 5 * time.Second}

	if deps.Places == nil {
		google := places.NewGoogleClient(cfg.Places.BaseURL, cfg.Places.APIKey, httpClient, log)
		deps.Places = places.NewCachedProvider(google, cfg.Places.CacheTTL)
	}
	if deps.Locator == nil {
		deps.Locator = geolocation.NewIPLocator(cfg.Places.IPAPIURL, httpClient, log)
	}

	repo := venues.NewRepository(deps.DB, log)
	clk := clock.New()

	return &AppHandlers{
		Venues: venues.NewVenuesHandler(repo, clk.Now, log),
		Events: events.NewEventsHandler(events.NewRepository(deps.DB, log), clk.Now, log),
		GeoIP:  geolocation.NewGeoIPHandler(deps.Locator, log),
		Discovery: discovery.NewHandler(discovery.Config{
			Countries:   cfg.Places.Countries,
			Debounce:    cfg.Discovery.Debounce,
			ScrollDelay: cfg.Discovery.ScrollDelay,
			PageLimit:   cfg.Discovery.PageLimit,
			Origin:      models.GeoPoint{Lat: cfg.Discovery.OriginLat, Lng: cfg.Discovery.OriginLng},
		}, discovery.Deps{
			Venues: repo,
			Places: deps.Places,
			Clock:  clk,
			Logger: log,
		}, middleware.CheckOrigin(cfg.AllowedOrigins)),
	}
}

// Setup registers every route on r.
func Setup(r *gin.Engine, cfg *config.Config, deps Dependencies, log *zap.Logger) {
	h := NewAppHandlers(cfg, deps, log)
	if deps.OnShutdown != nil {
		deps.OnShutdown(h.Discovery.Shutdown)
	}

	r.GET("/healthz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := deps.DB.Ping(ctx); err != nil {
			log.Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.GET("/venues", h.Venues.ListVenues)
		api.GET("/events", h.Events.ListEvents)
		api.GET("/geo-ip", h.GeoIP.Locate)
	}

	r.GET("/ws/discovery", h.Discovery.Serve)
}
