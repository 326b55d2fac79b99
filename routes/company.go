package routes

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/DAHUB-GUIOT/natur-78-sub003/models"
	"github.com/DAHUB-GUIOT/natur-78-sub003/services"
	"github.com/DAHUB-GUIOT/natur-78-sub003/storage"
	"github.com/DAHUB-GUIOT/natur-78-sub003/utils"
	"github.com/kataras/iris/v12"
	"golang.org/x/exp/slices"
)

type CompanyInput struct {
	Name           string   `json:"name" validate:"required,max=256"`
	Description    string   `json:"description"`
	Category       string   `json:"category" validate:"required"`
	LogoImage      string   `json:"logoImage"`
	Website        string   `json:"website"`
	Phone          string   `json:"phone"`
	Email          string   `json:"email" validate:"omitempty,email"`
	Address        string   `json:"address"`
	City           string   `json:"city"`
	Country        string   `json:"country"`
	Lat            float32  `json:"lat"`
	Lng            float32  `json:"lng"`
	Certifications []string `json:"certifications"`
	TaxID          string   `json:"taxID"`
}

// CreateCompany registers the caller's directory entry. One company per user;
// it enters the admin review queue as pending.
func CreateCompany(ctx iris.Context) {
	var input CompanyInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	if !slices.Contains(models.CompanyCategories, input.Category) {
		utils.CreateError(iris.StatusUnprocessableEntity, "Validation error",
			"Unknown company category.", ctx)
		return
	}

	userID := ctx.Values().Get("userID").(uint)

	var existing models.Company
	if err := storage.DB.Where("owner_id = ?", userID).First(&existing).Error; err == nil {
		ctx.StatusCode(http.StatusConflict)
		ctx.JSON(iris.Map{"error": "conflict", "message": "User already has a company"})
		return
	}

	company := models.Company{
		Name:           input.Name,
		Description:    input.Description,
		Category:       input.Category,
		Website:        input.Website,
		Phone:          utils.NormalizePhoneNumber(input.Phone),
		Email:          strings.ToLower(input.Email),
		Address:        input.Address,
		City:           input.City,
		Country:        input.Country,
		Lat:            input.Lat,
		Lng:            input.Lng,
		Certifications: marshalStringList(input.Certifications),
		TaxID:          input.TaxID,
		OwnerID:        userID,
		Status:         "pending",
		IsActive:       true,
	}

	if input.LogoImage != "" {
		company.LogoURL = uploadCompanyLogo(input.LogoImage, userID)
	}

	if err := storage.DB.Create(&company).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	notificationService := services.NewNotificationService()
	go notificationService.SendAdminNewCompanyNotification(&company)

	ctx.StatusCode(http.StatusCreated)
	ctx.JSON(company)
}

// GetMyCompany returns the caller's own company, whatever its status.
func GetMyCompany(ctx iris.Context) {
	userID := ctx.Values().Get("userID").(uint)

	var company models.Company
	if err := storage.DB.Preload("Listings").Where("owner_id = ?", userID).First(&company).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Company not found.", ctx)
		return
	}

	ctx.JSON(company)
}

// UpdateCompany edits the caller's company. Material edits put an approved
// entry back into review.
func UpdateCompany(ctx iris.Context) {
	var input CompanyInput
	if err := ctx.ReadJSON(&input); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	userID := ctx.Values().Get("userID").(uint)

	var company models.Company
	if err := storage.DB.Where("owner_id = ?", userID).First(&company).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Company not found.", ctx)
		return
	}

	if !slices.Contains(models.CompanyCategories, input.Category) {
		utils.CreateError(iris.StatusUnprocessableEntity, "Validation error",
			"Unknown company category.", ctx)
		return
	}

	renamed := company.Name != input.Name

	company.Name = input.Name
	company.Description = input.Description
	company.Category = input.Category
	company.Website = input.Website
	company.Phone = utils.NormalizePhoneNumber(input.Phone)
	company.Email = strings.ToLower(input.Email)
	company.Address = input.Address
	company.City = input.City
	company.Country = input.Country
	company.Lat = input.Lat
	company.Lng = input.Lng
	company.Certifications = marshalStringList(input.Certifications)
	company.TaxID = input.TaxID

	if input.LogoImage != "" && !strings.Contains(input.LogoImage, "res.cloudinary.com") {
		company.LogoURL = uploadCompanyLogo(input.LogoImage, userID)
	}

	// Renaming an approved company sends it back through review
	if renamed && company.Status == "approved" {
		company.Status = "pending"
	}

	if err := storage.DB.Save(&company).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(company)
}

// ListCompanies is the public directory: approved, active companies with
// category filter, text search and pagination.
func ListCompanies(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	query := storage.DB.Model(&models.Company{}).
		Where("status = ? AND is_active = ?", "approved", true)

	if category := strings.TrimSpace(ctx.URLParamDefault("category", "")); category != "" {
		query = query.Where("category = ?", category)
	}
	if city := strings.TrimSpace(ctx.URLParamDefault("city", "")); city != "" {
		query = query.Where("lower(city) = lower(?)", city)
	}
	if q := strings.TrimSpace(ctx.URLParamDefault("q", "")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("lower(name) LIKE ? OR lower(description) LIKE ?", like, like)
	}

	var total int64
	query.Count(&total)

	var companies []models.Company
	if err := query.Order("name ASC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&companies).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	utils.JSONPage(ctx, companies, page, perPage, total)
}

// GetCompany is the public company detail with its approved listings.
func GetCompany(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.CreateError(iris.StatusBadRequest, "Bad Request", "Invalid company id.", ctx)
		return
	}

	var company models.Company
	if err := storage.DB.
		Preload("Listings", "status = ? AND is_active = ?", "approved", true).
		Where("id = ? AND status = ? AND is_active = ?", id, "approved", true).
		First(&company).Error; err != nil {
		utils.CreateError(iris.StatusNotFound, "Not Found", "Company not found.", ctx)
		return
	}

	ctx.JSON(company)
}

func uploadCompanyLogo(base64Image string, userID uint) string {
	urlMap := storage.UploadBase64Image(base64Image, "company/"+strconv.FormatUint(uint64(userID), 10)+"/logo")
	if urlMap != nil {
		return urlMap["url"]
	}
	return ""
}
