package services

import (
	"math"

	"github.com/DAHUB-GUIOT/natur-78-sub003/models"
)

// Festival venues and points of interest in Medellín with their coordinates
var FestivalVenues = map[string]Venue{
	"plaza_mayor": {
		Name:     "Plaza Mayor – Sede principal",
		Lat:      6.2430,
		Lng:      -75.5740,
		Radius:   3.0, // km
		Type:     "venue",
		Priority: 1,
	},
	"jardin_botanico": {
		Name:     "Jardín Botánico",
		Lat:      6.2705,
		Lng:      -75.5636,
		Radius:   2.5,
		Type:     "nature",
		Priority: 2,
	},
	"parque_arvi": {
		Name:     "Parque Arví",
		Lat:      6.2816,
		Lng:      -75.5029,
		Radius:   6.0,
		Type:     "nature",
		Priority: 3,
	},
	"comuna13": {
		Name:     "Comuna 13 – Graffitour",
		Lat:      6.2494,
		Lng:      -75.6195,
		Radius:   2.0,
		Type:     "culture",
		Priority: 4,
	},
	"centro": {
		Name:     "Centro de Medellín",
		Lat:      6.2518,
		Lng:      -75.5636,
		Radius:   2.5,
		Type:     "city_center",
		Priority: 5,
	},
	"el_poblado": {
		Name:     "El Poblado",
		Lat:      6.2088,
		Lng:      -75.5679,
		Radius:   2.5,
		Type:     "commercial",
		Priority: 6,
	},
}

type Venue struct {
	Name     string  `json:"name"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	Radius   float64 `json:"radius"` // in kilometers
	Type     string  `json:"type"`
	Priority int     `json:"priority"`
}

// CalculateDistance returns the distance in km between two points (Haversine)
func CalculateDistance(lat1, lng1, lat2, lng2 float64) float64 {
	const R = 6371 // Earth's radius in kilometers

	dLat := (lat2 - lat1) * math.Pi / 180
	dLng := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*math.Pi/180)*math.Cos(lat2*math.Pi/180)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}

// IsListingNearVenue checks if a listing falls within a venue's radius
func IsListingNearVenue(listing *models.Listing, venue Venue) bool {
	distance := CalculateDistance(
		float64(listing.Lat),
		float64(listing.Lng),
		venue.Lat,
		venue.Lng,
	)
	return distance <= venue.Radius
}

// GetListingsNearVenue filters listings inside the venue's radius
func GetListingsNearVenue(listings []models.Listing, venueKey string) []models.Listing {
	venue, exists := FestivalVenues[venueKey]
	if !exists {
		return []models.Listing{}
	}

	nearby := []models.Listing{}
	for i := range listings {
		if IsListingNearVenue(&listings[i], venue) {
			nearby = append(nearby, listings[i])
		}
	}
	return nearby
}

// GetVenueInfo returns a venue by key
func GetVenueInfo(venueKey string) (Venue, bool) {
	venue, exists := FestivalVenues[venueKey]
	return venue, exists
}
