package models

import "strings"

// Category is the venue category enum as stored by the backend.
type Category string

const (
	CategoryAccommodation  Category = "ACCOMMODATION"
	CategoryBeautySalon    Category = "BEAUTY_SALON"
	CategoryCafe           Category = "CAFE"
	CategoryCatering       Category = "CATERING"
	CategoryChurch         Category = "CHURCH"
	CategoryClub           Category = "CLUB"
	CategoryCulturalCentre Category = "CULTURAL_CENTRE"
	CategoryDelivery       Category = "DELIVERY"
	CategoryGroceryStore   Category = "GROCERY_STORE"
	CategoryLegalService   Category = "LEGAL_SERVICE"
	CategoryLibrary        Category = "LIBRARY"
	CategoryMedia          Category = "MEDIA"
	CategoryMedical        Category = "MEDICAL"
	CategoryOrganization   Category = "ORGANIZATION"
	CategoryRestaurant     Category = "RESTAURANT"
	CategorySchool         Category = "SCHOOL"
	CategoryShop           Category = "SHOP"
)

// Categories lists every known category in display order.
var Categories = []Category{
	CategoryAccommodation, CategoryBeautySalon, CategoryCafe, CategoryCatering,
	CategoryChurch, CategoryClub, CategoryCulturalCentre, CategoryDelivery,
	CategoryGroceryStore, CategoryLegalService, CategoryLibrary, CategoryMedia,
	CategoryMedical, CategoryOrganization, CategoryRestaurant, CategorySchool,
	CategoryShop,
}

// ParseCategory normalizes user input into a known category.
func ParseCategory(s string) (Category, bool) {
	c := Category(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Categories {
		if known == c {
			return c, true
		}
	}
	return "", false
}

// Status is the moderation status of an entity.
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusActive   Status = "ACTIVE"
	StatusArchived Status = "ARCHIVED"
	StatusRejected Status = "REJECTED"
	StatusHidden   Status = "HIDDEN"
)

// DiscoverableEntity is a venue-like record shown on the map and in the list.
// Location is nil for entities without coordinates; they are listed but get no marker.
type DiscoverableEntity struct {
	ID                 string    `json:"id" db:"id"`
	Slug               string    `json:"slug" db:"slug"`
	Name               string    `json:"name" db:"name"`
	Category           Category  `json:"category" db:"category"`
	Status             Status    `json:"status" db:"status"`
	Location           *GeoPoint `json:"location,omitempty"`
	HasRelatedActivity bool      `json:"has_related_activity" db:"has_related_activity"`
}

// Page is what the data-fetch boundary returns for one query.
type Page struct {
	Count int                  `json:"count"`
	Total int                  `json:"total"`
	Items []DiscoverableEntity `json:"items"`
}
