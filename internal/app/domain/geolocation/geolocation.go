// Package geolocation turns "find me" attempts into a search origin.
package geolocation

import (
	"errors"
	"fmt"

	"github.com/FACorreiaa/loci-discovery/internal/app/models"
)

var (
	ErrPermissionDenied = errors.New("geolocation: permission denied")
	ErrUnavailable      = errors.New("geolocation: unavailable")
	ErrPosition         = errors.New("geolocation: position error")
)

// Report is the one-shot result the browser sends after a "find me" click.
// Exactly one of Coords or Error is set.
type Report struct {
	Coords *models.GeoPoint `json:"coords,omitempty"`
	Error  string           `json:"error,omitempty"`
}

// Resolve classifies a report. It never retries; the user has to click again.
func Resolve(r Report) (models.GeoPoint, error) {
	switch r.Error {
	case "":
	case "denied":
		return models.GeoPoint{}, ErrPermissionDenied
	case "unavailable":
		return models.GeoPoint{}, ErrUnavailable
	default:
		return models.GeoPoint{}, fmt.Errorf("%w: %s", ErrPosition, r.Error)
	}
	if r.Coords == nil {
		return models.GeoPoint{}, ErrPosition
	}
	if !r.Coords.Valid() {
		return models.GeoPoint{}, fmt.Errorf("%w: coordinates out of range", ErrPosition)
	}
	return *r.Coords, nil
}
