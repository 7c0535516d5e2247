package markers

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/FACorreiaa/loci-discovery/internal/app/models"
)

const maxLabelWords = 3

var categoryIcons = map[models.Category]string{
	models.CategoryAccommodation:  "BedDouble",
	models.CategoryBeautySalon:    "Wand2",
	models.CategoryCafe:           "Coffee",
	models.CategoryCatering:       "ChefHat",
	models.CategoryChurch:         "Church",
	models.CategoryClub:           "Music",
	models.CategoryCulturalCentre: "GalleryHorizontal",
	models.CategoryDelivery:       "Package",
	models.CategoryGroceryStore:   "ShoppingCart",
	models.CategoryLegalService:   "Scale",
	models.CategoryLibrary:        "Book",
	models.CategoryMedia:          "Megaphone",
	models.CategoryMedical:        "Hospital",
	models.CategoryOrganization:   "Building",
	models.CategoryRestaurant:     "Utensils",
	models.CategorySchool:         "GraduationCap",
	models.CategoryShop:           "ShoppingBag",
}

// IconGlyph is the marker text for an unselected marker: an icon reference
// the renderer swaps for the category glyph.
func IconGlyph(c models.Category) string {
	if icon, ok := categoryIcons[c]; ok {
		return "icon:" + icon
	}
	return "icon:MapPin"
}

// ShortName truncates name to its first three words, adding an ellipsis
// when anything was cut.
func ShortName(name string) string {
	words := strings.Fields(name)
	if len(words) > maxLabelWords {
		return strings.Join(words[:maxLabelWords], " ") + "..."
	}
	return strings.Join(words, " ")
}

// CategoryLabel is the human readable name of a category, e.g. "Grocery Store".
// A Caser keeps state between calls, so each call gets its own.
func CategoryLabel(c models.Category) string {
	if c == "" {
		return ""
	}
	return cases.Title(language.English).String(strings.ReplaceAll(strings.ToLower(string(c)), "_", " "))
}
