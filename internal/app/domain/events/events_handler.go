package events

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/FACorreiaa/loci-discovery/internal/app/domain/geofilter"
	"github.com/FACorreiaa/loci-discovery/internal/app/models"
)

// ListQuery is the query string of GET /api/events. Dates are RFC 3339.
type ListQuery struct {
	Type     string   `form:"type"`
	Price    string   `form:"price"`
	Online   *bool    `form:"online"`
	Country  string   `form:"country"`
	Q        string   `form:"q"`
	Distance int      `form:"distance"`
	Lat      *float64 `form:"lat"`
	Lng      *float64 `form:"lng"`
	Slug     string   `form:"slug"`
	From     string   `form:"from"`
	To       string   `form:"to"`
	Limit    int      `form:"limit"`
	Offset   int      `form:"offset"`
	Order    string   `form:"order"`
	Desc     bool     `form:"desc"`
}

// Criteria converts the query into builder input.
func (q ListQuery) Criteria() (models.Criteria, error) {
	c := models.Criteria{
		FilterState: models.FilterState{
			Country:        q.Country,
			TextQuery:      q.Q,
			Online:         q.Online,
			DistanceMeters: q.Distance,
			TargetSlug:     q.Slug,
		},
		EventType: strings.ToUpper(strings.TrimSpace(q.Type)),
		PriceType: strings.ToUpper(strings.TrimSpace(q.Price)),
	}
	if q.Distance < 0 {
		return c, errors.New("distance must be positive")
	}
	if (q.Lat == nil) != (q.Lng == nil) {
		return c, errors.New("lat and lng must be given together")
	}
	if q.Lat != nil {
		origin := models.GeoPoint{Lat: *q.Lat, Lng: *q.Lng}
		if !origin.Valid() {
			return c, errors.New("coordinates out of range")
		}
		c.Origin = &origin
	}

	var err error
	if c.DateFrom, err = parseDate(q.From); err != nil {
		return c, errors.New("from must be an RFC 3339 timestamp")
	}
	if c.DateTo, err = parseDate(q.To); err != nil {
		return c, errors.New("to must be an RFC 3339 timestamp")
	}
	if c.DateFrom != nil && c.DateTo != nil && c.DateTo.Before(*c.DateFrom) {
		return c, errors.New("to must not be before from")
	}
	return c, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, err
	}
	t = t.UTC()
	return &t, nil
}

// ListResponse is a page of events together with the filter that selected it,
// in the GraphQL "where" dialect, so clients can reuse it against the backend.
type ListResponse struct {
	models.EventPage
	Where map[string]any `json:"where"`
}

type EventsHandler struct {
	repo    Repository
	builder *geofilter.Builder
	logger  *zap.Logger
}

func NewEventsHandler(repo Repository, now func() time.Time, logger *zap.Logger) *EventsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventsHandler{
		repo:    repo,
		builder: geofilter.NewBuilder(geofilter.EventSchema, now),
		logger:  logger,
	}
}

// ListEvents godoc
// @Summary List upcoming events
// @Description Filter active events by type, price, date range, text and distance from a point
// @Tags events
// @Produce json
// @Param type query string false "Event type"
// @Param price query string false "Price type"
// @Param online query bool false "Online events only (true) or in person only (false)"
// @Param from query string false "Lower date bound, RFC 3339; defaults to now"
// @Param to query string false "Upper date bound, RFC 3339"
// @Param distance query int false "Radius in meters"
// @Param lat query number false "Origin latitude"
// @Param lng query number false "Origin longitude"
// @Param slug query string false "Exact event slug"
// @Success 200 {object} ListResponse
// @Failure 400 {object} map[string]string
// @Failure 500 {object} map[string]string
// @Router /api/events [get]
func (h *EventsHandler) ListEvents(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.logger.Warn("Invalid event query", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}
	criteria, err := q.Criteria()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	params := models.ListParams{Limit: q.Limit, Offset: q.Offset}
	if q.Order != "" {
		params.Order = []models.OrderBy{{Field: q.Order, Desc: q.Desc}}
	}

	where := h.builder.Events(criteria)
	page, err := h.repo.Fetch(c.Request.Context(), where, params)
	if err != nil {
		if errors.Is(err, models.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("Failed to list events", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve events"})
		return
	}

	c.JSON(http.StatusOK, ListResponse{EventPage: page, Where: geofilter.Where(where)})
}
