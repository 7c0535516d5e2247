package models

import "fmt"

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies inside the WGS84 ranges.
func (p GeoPoint) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// Coordinates returns the point in GeoJSON order (lng, lat).
func (p GeoPoint) Coordinates() [2]float64 {
	return [2]float64{p.Lng, p.Lat}
}

func (p GeoPoint) String() string {
	return fmt.Sprintf("%.6f,%.6f", p.Lat, p.Lng)
}

// London is the fallback origin used before the user searches or locates themselves.
var London = GeoPoint{Lat: 51.509865, Lng: -0.118092}
