package models

import "time"

// DefaultDistanceMeters is used when a spatial search has no explicit radius.
const DefaultDistanceMeters = 100000

// DistanceOptions are the radii offered by the distance selector, in meters.
var DistanceOptions = []int{1000, 2000, 5000, 10000, 25000, DefaultDistanceMeters}

// FilterState is the user-controlled search state of one map view.
// It is treated as a value: setters on the controller replace it wholesale.
type FilterState struct {
	Category       *Category `json:"category,omitempty"`
	Country        string    `json:"country,omitempty"`
	TextQuery      string    `json:"text_query,omitempty"`
	Online         *bool     `json:"online,omitempty"`
	DistanceMeters int       `json:"distance_meters,omitempty"`
	Origin         *GeoPoint `json:"origin,omitempty"`
	TargetSlug     string    `json:"target_slug,omitempty"`
}

// Criteria is the full input of the filter builder. Event listings use the
// date and type fields; the venue map uses the FilterState subset.
type Criteria struct {
	FilterState
	DateFrom  *time.Time
	DateTo    *time.Time
	EventType string
	PriceType string
}

// OrderBy is a single sort key for the data-fetch boundary.
type OrderBy struct {
	Field string `json:"field"`
	Desc  bool   `json:"desc"`
}

// ListParams carries pagination alongside a filter expression.
type ListParams struct {
	Limit  int       `json:"limit"`
	Offset int       `json:"offset"`
	Order  []OrderBy `json:"order,omitempty"`
}

func Ptr[T any](v T) *T { return &v }
