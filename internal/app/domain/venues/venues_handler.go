package venues

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-discovery/internal/app/domain/geofilter"
	"github.com/FACorreiaa/loci-discovery/internal/app/models"
)

// ListQuery is the query string of GET /api/venues.
type ListQuery struct {
	Category string   `form:"category"`
	Country  string   `form:"country"`
	Q        string   `form:"q"`
	Distance int      `form:"distance"`
	Lat      *float64 `form:"lat"`
	Lng      *float64 `form:"lng"`
	Slug     string   `form:"slug"`
	Limit    int      `form:"limit"`
	Offset   int      `form:"offset"`
	Order    string   `form:"order"`
	Desc     bool     `form:"desc"`
}

// FilterState converts the query into the same filter state the map uses.
func (q ListQuery) FilterState() (models.FilterState, error) {
	state := models.FilterState{
		Country:        q.Country,
		TextQuery:      q.Q,
		DistanceMeters: q.Distance,
		TargetSlug:     q.Slug,
	}
	if q.Category != "" {
		cat, ok := models.ParseCategory(q.Category)
		if !ok {
			return state, errors.New("unknown category")
		}
		state.Category = &cat
	}
	if (q.Lat == nil) != (q.Lng == nil) {
		return state, errors.New("lat and lng must be given together")
	}
	if q.Lat != nil {
		origin := models.GeoPoint{Lat: *q.Lat, Lng: *q.Lng}
		if !origin.Valid() {
			return state, errors.New("coordinates out of range")
		}
		state.Origin = &origin
	}
	if q.Distance < 0 {
		return state, errors.New("distance must be positive")
	}
	return state, nil
}

type VenuesHandler struct {
	repo    Repository
	builder *geofilter.Builder
	logger  *zap.Logger
}

func NewVenuesHandler(repo Repository, now func() time.Time, logger *zap.Logger) *VenuesHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VenuesHandler{
		repo:    repo,
		builder: geofilter.NewBuilder(geofilter.VenueSchema, now),
		logger:  logger,
	}
}

// ListVenues godoc
// @Summary List public venues
// @Description Filter venues by category, text, slug and distance from a point
// @Tags venues
// @Produce json
// @Param category query string false "Venue category"
// @Param distance query int false "Radius in meters"
// @Param lat query number false "Origin latitude"
// @Param lng query number false "Origin longitude"
// @Param slug query string false "Exact venue slug"
// @Success 200 {object} models.Page
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/venues [get]
func (h *VenuesHandler) ListVenues(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.logger.Warn("Invalid venue query", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}
	state, err := q.FilterState()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := models.ListParams{Limit: q.Limit, Offset: q.Offset}
	if q.Order != "" {
		params.Order = []models.OrderBy{{Field: q.Order, Desc: q.Desc}}
	}

	page, err := h.repo.Fetch(c.Request.Context(), h.builder.Venues(state), params)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to list venues", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve venues"})
		return
	}

	c.JSON(http.StatusOK, page)
}
