// Package places talks to the places autocomplete and place-details provider.
package places

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/FACorreiaa/loci-discovery/internal/app/models"
)

var (
	// ErrRateLimited is returned when the provider rejects a request for quota.
	ErrRateLimited = errors.New("places: rate limited")
	// ErrNoResults is returned by Details when the place has no geometry.
	ErrNoResults = errors.New("places: no results")
	// ErrMapNotReady is a caller contract violation: details were requested
	// before the map surface existed.
	ErrMapNotReady = errors.New("places: map is not available yet")
)

// SessionToken groups the autocomplete requests of one search with the
// place-details call that ends it.
type SessionToken string

// NewSessionToken returns a fresh random token.
func NewSessionToken() SessionToken {
	return SessionToken(uuid.NewString())
}

// Suggestion is one autocomplete prediction.
type Suggestion struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// SuggestRequest is a single autocomplete lookup.
type SuggestRequest struct {
	Input     string
	Countries []string
	Token     SessionToken
}

// Provider is the places backend consumed by autocomplete sessions.
type Provider interface {
	Suggest(ctx context.Context, req SuggestRequest) ([]Suggestion, error)
	Details(ctx context.Context, placeID string, token SessionToken) (models.GeoPoint, error)
}
