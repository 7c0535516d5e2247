package geolocation

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IPResolver is satisfied by *IPLocator.
type IPResolver interface {
	Locate(ctx context.Context, ip string) (IPLocation, error)
}

type GeoIPHandler struct {
	locator IPResolver
	logger  *zap.Logger
}

func NewGeoIPHandler(locator IPResolver, logger *zap.Logger) *GeoIPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeoIPHandler{locator: locator, logger: logger}
}

// Locate godoc
// @Summary Approximate the caller's location
// @Description Resolves the client address to a coarse position usable as a map origin
// @Tags geolocation
// @Produce json
// @Success 200 {object} IPLocation
// @Failure 400 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /api/geo-ip [get]
func (h *GeoIPHandler) Locate(c *gin.Context) {
	ip := ClientIP(c.GetHeader("X-Forwarded-For"), c.GetHeader("X-Real-Ip"), c.Request.RemoteAddr)

	loc, err := h.locator.Locate(c.Request.Context(), ip)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, loc)
	case errors.Is(err, ErrPrivateAddress):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid or private IP address"})
	default:
		h.logger.Warn("Geo IP lookup failed", zap.String("ip", ip), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch location data"})
	}
}
