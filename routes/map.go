package routes

import (
	"github.com/DAHUB-GUIOT/natur-78-sub003/models"
	"github.com/DAHUB-GUIOT/natur-78-sub003/services"
	"github.com/DAHUB-GUIOT/natur-78-sub003/storage"
	"github.com/DAHUB-GUIOT/natur-78-sub003/utils"
	"github.com/kataras/iris/v12"
)

type BoundingBoxInput struct {
	LatLow  float64 `json:"latLow" validate:"required"`
	LatHigh float64 `json:"latHigh" validate:"required"`
	LngLow  float64 `json:"lngLow" validate:"required"`
	LngHigh float64 `json:"lngHigh" validate:"required"`
}

// GetListingsByBoundingBox returns approved listings inside the viewport for
// the interactive map.
func GetListingsByBoundingBox(ctx iris.Context) {
	var boundingBox BoundingBoxInput
	if err := ctx.ReadJSON(&boundingBox); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var listings []models.Listing
	result := storage.DB.Preload("Company").
		Where("lat >= ? AND lat <= ? AND lng >= ? AND lng <= ? AND is_active = ? AND status = ?",
			boundingBox.LatLow, boundingBox.LatHigh, boundingBox.LngLow, boundingBox.LngHigh,
			true, "approved").
		Order("created_at DESC").
		Find(&listings)

	if result.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(listings)
}

// GetListingsNearVenue returns approved listings within a festival venue's
// radius, closest first cap at limit.
func GetListingsNearVenue(ctx iris.Context) {
	venueKey := ctx.Params().Get("venue")
	limit := ctx.URLParamIntDefault("limit", 8)
	if limit <= 0 || limit > 50 {
		limit = 8
	}

	venue, exists := services.GetVenueInfo(venueKey)
	if !exists {
		ctx.JSON(iris.Map{"success": false, "error": "Venue not found"})
		return
	}

	var listings []models.Listing
	result := storage.DB.Where("is_active = ? AND status = ?", true, "approved").Find(&listings)
	if result.Error != nil {
		ctx.JSON(iris.Map{"success": false, "error": "Failed to fetch listings"})
		return
	}

	nearby := services.GetListingsNearVenue(listings, venueKey)
	if len(nearby) > limit {
		nearby = nearby[:limit]
	}

	ctx.JSON(iris.Map{
		"success":  true,
		"listings": nearby,
		"venue":    venue,
		"count":    len(nearby),
	})
}

// GetVenues lists the named festival venues for the map side panel.
func GetVenues(ctx iris.Context) {
	venues := make([]iris.Map, 0, len(services.FestivalVenues))
	for key, venue := range services.FestivalVenues {
		venues = append(venues, iris.Map{
			"key":      key,
			"name":     venue.Name,
			"lat":      venue.Lat,
			"lng":      venue.Lng,
			"type":     venue.Type,
			"priority": venue.Priority,
		})
	}
	ctx.JSON(iris.Map{"success": true, "venues": venues})
}

// GetCompanyPins returns approved companies with coordinates as map pins.
func GetCompanyPins(ctx iris.Context) {
	var companies []models.Company
	result := storage.DB.
		Where("status = ? AND is_active = ? AND (lat != 0 OR lng != 0)", "approved", true).
		Select("id, name, category, city, lat, lng, logo_url").
		Find(&companies)

	if result.Error != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(companies)
}
