package routes

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DAHUB-GUIOT/natur-78-sub003/models"
	"github.com/DAHUB-GUIOT/natur-78-sub003/storage"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/kataras/iris/v12"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func buildMapTestApp(t *testing.T) *iris.Application {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Company{}, &models.Listing{}))
	storage.DB = db

	app := iris.New()
	app.Validator = validator.New()

	mapParty := app.Party("/api/map")
	mapParty.Post("/listings", GetListingsByBoundingBox)
	mapParty.Get("/near/{venue}", GetListingsNearVenue)
	mapParty.Get("/venues", GetVenues)
	mapParty.Get("/companies", GetCompanyPins)

	app.Get("/api/geocode", GeocodeSearch)

	require.NoError(t, app.Build())
	return app
}

func seedApprovedListing(t *testing.T, title string, lat, lng float32) models.Listing {
	t.Helper()
	owner := createTestUser(t, "owner-"+title, "empresa")
	company := models.Company{Name: "Empresa " + title, Category: "ecoturismo", OwnerID: owner.ID, Status: "approved", IsActive: true}
	require.NoError(t, storage.DB.Create(&company).Error)

	active := true
	listing := models.Listing{
		CompanyID: company.ID, Title: title, Category: "tour",
		Price: 100000, Currency: "COP", Lat: lat, Lng: lng,
		Status: "approved", IsActive: &active,
	}
	require.NoError(t, storage.DB.Create(&listing).Error)
	return listing
}

func TestGetListingsByBoundingBox(t *testing.T) {
	app := buildMapTestApp(t)

	inside := seedApprovedListing(t, "Centro", 6.25, -75.57)
	seedApprovedListing(t, "Bogotá", 4.71, -74.07)

	resp := doJSON(app, http.MethodPost, "/api/map/listings", "", iris.Map{
		"latLow": 6.1, "latHigh": 6.4, "lngLow": -75.7, "lngHigh": -75.4,
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var listings []models.Listing
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &listings))
	require.Len(t, listings, 1)
	assert.Equal(t, inside.ID, listings[0].ID)
}

func TestGetListingsNearVenue(t *testing.T) {
	app := buildMapTestApp(t)

	near := seedApprovedListing(t, "Arví", 6.2816, -75.5029)
	seedApprovedListing(t, "Lejos", 4.71, -74.07)

	resp := doJSON(app, http.MethodGet, "/api/map/near/parque_arvi", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Success  bool             `json:"success"`
		Listings []models.Listing `json:"listings"`
		Count    int              `json:"count"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Listings, 1)
	assert.Equal(t, near.ID, body.Listings[0].ID)
	assert.Equal(t, 1, body.Count)

	resp = doJSON(app, http.MethodGet, "/api/map/near/no_existe", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)
	var failure struct {
		Success bool `json:"success"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &failure))
	assert.False(t, failure.Success)
}

func TestGetVenues(t *testing.T) {
	app := buildMapTestApp(t)

	resp := doJSON(app, http.MethodGet, "/api/map/venues", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Success bool                     `json:"success"`
		Venues  []map[string]interface{} `json:"venues"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Len(t, body.Venues, 6)
}

func TestGetCompanyPinsSkipsUnlocatedCompanies(t *testing.T) {
	app := buildMapTestApp(t)

	located := createTestUser(t, "ubicada", "empresa")
	unlocated := createTestUser(t, "sinubicar", "empresa")
	require.NoError(t, storage.DB.Create(&models.Company{
		Name: "Con pin", Category: "ecoturismo", OwnerID: located.ID,
		Status: "approved", IsActive: true, Lat: 6.25, Lng: -75.57,
	}).Error)
	require.NoError(t, storage.DB.Create(&models.Company{
		Name: "Sin pin", Category: "ecoturismo", OwnerID: unlocated.ID,
		Status: "approved", IsActive: true,
	}).Error)

	resp := doJSON(app, http.MethodGet, "/api/map/companies", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var companies []models.Company
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &companies))
	require.Len(t, companies, 1)
	assert.Equal(t, "Con pin", companies[0].Name)
}

func TestGeocodeSearch(t *testing.T) {
	app := buildMapTestApp(t)

	// Missing q
	resp := doJSON(app, http.MethodGet, "/api/geocode", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"display_name": "Medellín, Antioquia", "lat": "6.2442", "lon": "-75.5812", "importance": 0.8}]`))
	}))
	defer upstream.Close()
	t.Setenv("GEOCODER_URL", upstream.URL)

	resp = doJSON(app, http.MethodGet, "/api/geocode?q=Medell%C3%ADn", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Suggestions []map[string]interface{} `json:"suggestions"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	require.Len(t, body.Suggestions, 1)
	assert.Equal(t, "Medellín, Antioquia", body.Suggestions[0]["displayName"])
}

func TestGeocodeSearchDegradesOnUpstreamFailure(t *testing.T) {
	app := buildMapTestApp(t)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()
	t.Setenv("GEOCODER_URL", upstream.URL)

	resp := doJSON(app, http.MethodGet, "/api/geocode?q=Medell%C3%ADn", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var body struct {
		Suggestions []map[string]interface{} `json:"suggestions"`
		Message     string                   `json:"message"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	assert.Empty(t, body.Suggestions)
	assert.NotEmpty(t, body.Message)
}
