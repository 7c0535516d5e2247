package geofilter

import (
	"strings"
	"time"

	"github.com/FACorreiaa/loci-discovery/internal/app/models"
)

// Schema names the backend fields a builder writes conditions against.
// An empty field name disables the corresponding rule.
type Schema struct {
	Slug           string
	Online         string
	Category       string
	Country        string
	EventType      string
	PriceType      string
	Location       string
	ParentLocation string
	StartDate      string
	EndDate        string
	TextFields     []string
}

// VenueSchema describes the venues table. Venues may inherit their location
// from the grouping venue they belong to.
var VenueSchema = Schema{
	Slug:           "slug",
	Category:       "category",
	Country:        "country",
	Location:       "geo",
	ParentLocation: "parent.geo",
	TextFields: []string{
		"name",
		"description_en",
		"description_uk",
		"address",
		"city",
		"parent.name",
	},
}

// EventSchema describes the events table, linked to its hosting venue.
// Events carry a type instead of a venue category.
var EventSchema = Schema{
	Slug:           "slug",
	Online:         "is_online",
	Country:        "country",
	EventType:      "event_type",
	PriceType:      "price_type",
	Location:       "geo",
	ParentLocation: "venue.geo",
	StartDate:      "start_date",
	EndDate:        "end_date",
	TextFields: []string{
		"title_en",
		"title_uk",
		"description_en",
		"description_uk",
		"area",
		"city",
		"custom_location_address",
		"venue.name",
	},
}

// Builder turns search criteria into a filter expression. It holds no state
// besides its configuration and can be shared.
type Builder struct {
	schema Schema
	now    func() time.Time
}

// NewBuilder returns a builder for schema. A nil now uses time.Now.
func NewBuilder(schema Schema, now func() time.Time) *Builder {
	if now == nil {
		now = time.Now
	}
	return &Builder{schema: schema, now: now}
}

// Build returns a fresh top-level conjunction for c. Calling it twice with the
// same criteria and clock yields deep-equal results.
func (b *Builder) Build(c models.Criteria) And {
	s := b.schema
	where := And{}

	if c.TargetSlug != "" && s.Slug != "" {
		return append(where, Eq{Field: s.Slug, Value: c.TargetSlug})
	}

	if c.Online != nil && s.Online != "" {
		where = append(where, Eq{Field: s.Online, Value: *c.Online})
	}
	if c.Category != nil && *c.Category != "" && s.Category != "" {
		where = append(where, Eq{Field: s.Category, Value: strings.ToUpper(string(*c.Category))})
	}
	if c.EventType != "" && s.EventType != "" {
		where = append(where, Eq{Field: s.EventType, Value: c.EventType})
	}
	if c.PriceType != "" && s.PriceType != "" {
		where = append(where, Eq{Field: s.PriceType, Value: c.PriceType})
	}
	if c.Country != "" && s.Country != "" {
		where = append(where, Eq{Field: s.Country, Value: c.Country})
	}

	if s.StartDate != "" && s.EndDate != "" {
		where = append(where, b.dateClause(c.DateFrom, c.DateTo))
	}

	if c.Origin != nil && (c.Online == nil || !*c.Online) {
		where = append(where, spatialClause(s, *c.Origin, c.DistanceMeters))
	}

	if q := strings.TrimSpace(c.TextQuery); q != "" && len(s.TextFields) > 0 {
		where = append(where, textClause(s.TextFields, q))
	}

	return where
}

// Venues builds the venue map filter from the view's filter state.
func (b *Builder) Venues(state models.FilterState) And {
	return b.Build(models.Criteria{FilterState: state})
}

// Events builds an event listing filter. Equivalent to Build; it exists so
// callers read the same way for both listings.
func (b *Builder) Events(c models.Criteria) And {
	return b.Build(c)
}

func (b *Builder) dateClause(from, to *time.Time) Or {
	lower := b.now().UTC()
	if from != nil {
		lower = *from
	}
	var upper *time.Time
	if to != nil {
		u := *to
		upper = &u
	}
	return Or{
		Range{Field: b.schema.EndDate, Gte: &lower, Lte: upper},
		Range{Field: b.schema.StartDate, Gte: &lower, Lte: upper},
	}
}

func spatialClause(s Schema, origin models.GeoPoint, meters int) Expr {
	if meters <= 0 {
		meters = models.DefaultDistanceMeters
	}
	own := DWithin{Field: s.Location, From: origin, Meters: meters}
	if s.ParentLocation == "" {
		return own
	}
	return Or{own, DWithin{Field: s.ParentLocation, From: origin, Meters: meters}}
}

func textClause(fields []string, q string) Or {
	pattern := "%" + escapeLike(q) + "%"
	or := make(Or, 0, len(fields))
	for _, f := range fields {
		or = append(or, ILike{Field: f, Pattern: pattern})
	}
	return or
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
