package models

import "time"

// Event is a dated listing, optionally hosted by a venue it inherits a
// location from.
type Event struct {
	ID        string     `json:"id" db:"id"`
	Slug      string     `json:"slug" db:"slug"`
	Title     string     `json:"title" db:"title_en"`
	EventType string     `json:"event_type,omitempty" db:"event_type"`
	PriceType string     `json:"price_type,omitempty" db:"price_type"`
	IsOnline  bool       `json:"is_online" db:"is_online"`
	StartDate time.Time  `json:"start_date" db:"start_date"`
	EndDate   *time.Time `json:"end_date,omitempty" db:"end_date"`
	VenueID   *string    `json:"venue_id,omitempty" db:"venue_id"`
	VenueName *string    `json:"venue_name,omitempty"`
	Location  *GeoPoint  `json:"location,omitempty"`
}

// EventPage is one page of an event listing.
type EventPage struct {
	Count int     `json:"count"`
	Total int     `json:"total"`
	Items []Event `json:"items"`
}
