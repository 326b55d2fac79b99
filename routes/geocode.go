package routes

import (
	"log"
	"strings"

	"github.com/DAHUB-GUIOT/natur-78-sub003/services"
	"github.com/DAHUB-GUIOT/natur-78-sub003/utils"
	"github.com/kataras/iris/v12"
)

// GeocodeSearch handles GET /api/geocode?q=: ranked address suggestions for
// the registration/address forms. Upstream failures degrade to an empty list
// with a user-visible message instead of an error status.
func GeocodeSearch(ctx iris.Context) {
	query := strings.TrimSpace(ctx.URLParamDefault("q", ""))
	if query == "" {
		utils.CreateError(iris.StatusUnprocessableEntity, "Validation error",
			"Query parameter q is required.", ctx)
		return
	}
	limit := ctx.URLParamIntDefault("limit", 5)

	client := services.NewGeocodingClient()
	suggestions, err := client.Search(query, limit)
	if err != nil {
		log.Printf("geocoder lookup failed for %q: %v", query, err)
		ctx.JSON(iris.Map{
			"suggestions": []services.AddressSuggestion{},
			"message":     "No pudimos validar la dirección, inténtalo de nuevo.",
		})
		return
	}

	ctx.JSON(iris.Map{"suggestions": suggestions})
}
