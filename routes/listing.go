package routes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/DAHUB-GUIOT/natur-78-sub003/models"
	"github.com/DAHUB-GUIOT/natur-78-sub003/storage"
	"github.com/DAHUB-GUIOT/natur-78-sub003/utils"
	"github.com/kataras/iris/v12"
	"golang.org/x/exp/slices"
)

type ListingInput struct {
	Title       string   `json:"title" validate:"required,max=256"`
	Description string   `json:"description"`
	Category    string   `json:"category" validate:"required"`
	Price       float32  `json:"price" validate:"gte=0"`
	Currency    string   `json:"currency" validate:"omitempty,len=3"`
	Unit        string   `json:"unit" validate:"omitempty,oneof=per_person per_night per_group"`
	Images      []string `json:"images"`
	Duration    string   `json:"duration"`
	Capacity    int      `json:"capacity"`
	City        string   `json:"city"`
	Lat         float32  `json:"lat"`
	Lng         float32  `json:"lng"`
}

// CreateListing publishes a marketplace offering for the caller's approved
// company. New listings go through admin review before appearing publicly.
func CreateListing(ctx iris.Context) {
	var input ListingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !slices.Contains(models.ListingCategories, input.Category) {
		utils.CreateError(iris.StatusUnprocessableEntity, "Validation error",
			"Unknown listing category.", ctx)
		return
	}

	userID := ctx.Values().Get("userID").(uint)

	var company models.Company
	if err := storage.DB.Where("owner_id = ?", userID).First(&company).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Company not found.", ctx)
		return
	}
	if company.Status != "approved" {
		ctx.StatusCode(http.StatusForbidden)
		ctx.JSON(iris.Map{"error": "forbidden", "message": "company must be approved before publishing"})
		return
	}

	active := true
	listing := models.Listing{
		CompanyID:   company.ID,
		Title:       input.Title,
		Description: input.Description,
		Category:    input.Category,
		Price:       input.Price,
		Currency:    defaultCurrency(input.Currency),
		Unit:        input.Unit,
		Duration:    input.Duration,
		Capacity:    input.Capacity,
		City:        input.City,
		Lat:         input.Lat,
		Lng:         input.Lng,
		IsActive:    &active,
		Status:      "pending",
	}

	listing.Images = marshalStringList(insertListingImages(input.Images, company.ID))

	if err := storage.DB.Create(&listing).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(http.StatusCreated)
	ctx.JSON(listing)
}

// UpdateListing edits one of the caller's listings.
func UpdateListing(ctx iris.Context) {
	var input ListingInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	listing := loadOwnListing(ctx)
	if listing == nil {
		return
	}

	if !slices.Contains(models.ListingCategories, input.Category) {
		utils.CreateError(iris.StatusUnprocessableEntity, "Validation error",
			"Unknown listing category.", ctx)
		return
	}

	listing.Title = input.Title
	listing.Description = input.Description
	listing.Category = input.Category
	listing.Price = input.Price
	listing.Currency = defaultCurrency(input.Currency)
	listing.Unit = input.Unit
	listing.Duration = input.Duration
	listing.Capacity = input.Capacity
	listing.City = input.City
	listing.Lat = input.Lat
	listing.Lng = input.Lng
	if input.Images != nil {
		listing.Images = marshalStringList(insertListingImages(input.Images, listing.CompanyID))
	}

	if err := storage.DB.Save(listing).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(listing)
}

// DeleteListing soft-deletes one of the caller's listings.
func DeleteListing(ctx iris.Context) {
	listing := loadOwnListing(ctx)
	if listing == nil {
		return
	}

	if err := storage.DB.Delete(listing).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}

// GetMyListings returns all of the caller's company listings, any status.
func GetMyListings(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var company models.Company
	if err := storage.DB.Where("owner_id = ?", userID).First(&company).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Company not found.", ctx)
		return
	}

	listings := []models.Listing{}
	storage.DB.Where("company_id = ?", company.ID).Order("created_at DESC").Find(&listings)

	ctx.JSON(listings)
}

// ListListings is the public marketplace: approved, active listings with
// category, price and text filters plus pagination.
func ListListings(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	query := storage.DB.Model(&models.Listing{}).
		Where("listings.status = ? AND listings.is_active = ?", "approved", true)

	if category := strings.TrimSpace(ctx.URLParamDefault("category", "")); category != "" {
		query = query.Where("category = ?", category)
	}
	if city := strings.TrimSpace(ctx.URLParamDefault("city", "")); city != "" {
		query = query.Where("lower(listings.city) = lower(?)", city)
	}
	if minPrice, err := ctx.URLParamFloat64("min_price"); err == nil {
		query = query.Where("price >= ?", minPrice)
	}
	if maxPrice, err := ctx.URLParamFloat64("max_price"); err == nil {
		query = query.Where("price <= ?", maxPrice)
	}
	if q := strings.TrimSpace(ctx.URLParamDefault("q", "")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("lower(title) LIKE ? OR lower(listings.description) LIKE ?", like, like)
	}

	order := "created_at DESC"
	switch ctx.URLParamDefault("sort", "") {
	case "price_asc":
		order = "price ASC"
	case "price_desc":
		order = "price DESC"
	}

	var total int64
	query.Count(&total)

	var listings []models.Listing
	if err := query.Preload("Company").Order(order).
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&listings).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, listings, page, perPage, total)
}

// GetListing is the public listing detail.
func GetListing(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid listing id.", ctx)
		return
	}

	var listing models.Listing
	if err := storage.DB.Preload("Company").
		Where("id = ? AND status = ?", id, "approved").
		First(&listing).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Listing not found.", ctx)
		return
	}

	ctx.JSON(listing)
}

func loadOwnListing(ctx iris.Context) *models.Listing {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid listing id.", ctx)
		return nil
	}

	userID := ctx.Values().Get("userID").(uint)

	var listing models.Listing
	if err := storage.DB.Joins("Company").
		Where("listings.id = ?", id).First(&listing).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Listing not found.", ctx)
		return nil
	}

	if listing.Company.OwnerID != userID {
		ctx.StopWithStatus(http.StatusForbidden)
		return nil
	}

	return &listing
}

// insertListingImages uploads any base64 payloads and keeps hosted URLs as-is.
func insertListingImages(images []string, companyID uint) []string {
	uploaded := make([]string, 0, len(images))
	for i, image := range images {
		if image == "" {
			continue
		}
		if strings.Contains(image, "res.cloudinary.com") {
			uploaded = append(uploaded, image)
			continue
		}
		timestamp := time.Now().UnixNano() / int64(time.Millisecond)
		publicID := fmt.Sprintf("listing/%d/listing_%d_%d", companyID, timestamp, i)
		urlMap := storage.UploadBase64Image(image, publicID)
		if urlMap != nil && urlMap["url"] != "" {
			uploaded = append(uploaded, urlMap["url"])
		}
	}
	return uploaded
}

func marshalStringList(list []string) string {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func firstImageURL(imagesJSON string) string {
	if imagesJSON == "" {
		return ""
	}
	var images []string
	if err := json.Unmarshal([]byte(imagesJSON), &images); err != nil || len(images) == 0 {
		return ""
	}
	return images[0]
}

func defaultCurrency(currency string) string {
	if currency == "" {
		return "COP"
	}
	return strings.ToUpper(currency)
}
