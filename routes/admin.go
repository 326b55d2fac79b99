package routes

import (
	"net/http"
	"strings"

	"github.com/DAHUB-GUIOT/natur-78-sub003/models"
	"github.com/DAHUB-GUIOT/natur-78-sub003/services"
	"github.com/DAHUB-GUIOT/natur-78-sub003/storage"
	"github.com/DAHUB-GUIOT/natur-78-sub003/utils"
	"github.com/kataras/iris/v12"
)

// AdminListUsers - GET /api/admin/users?role=&q=&page=&per_page=
func AdminListUsers(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	var users []models.User
	q := strings.TrimSpace(ctx.URLParamDefault("q", ""))
	role := strings.TrimSpace(ctx.URLParamDefault("role", ""))

	query := storage.DB.Model(&models.User{})
	if role != "" {
		query = query.Where("role = ?", role)
	}
	if q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("lower(first_name) LIKE ? OR lower(last_name) LIKE ? OR lower(email) LIKE ?", like, like, like)
	}

	var total int64
	query.Count(&total)
	query = query.Offset((page - 1) * perPage).Limit(perPage)
	if err := query.Find(&users).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	utils.JSONPage(ctx, users, page, perPage, total)
}

// AdminGetUser - GET /api/admin/users/:id with recent admin actions
func AdminGetUser(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	var user models.User
	if err := storage.DB.Preload("Company").First(&user, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "user not found")
		return
	}

	var actions []models.AuditLog
	storage.DB.Where("resource_type = ? AND resource_id = ?", "user", id).
		Order("created_at DESC").Limit(50).Find(&actions)

	ctx.JSON(iris.Map{
		"data": iris.Map{
			"user":               user,
			"recentAdminActions": actions,
		},
		"meta":  iris.Map{},
		"links": iris.Map{},
	})
}

// AdminChangeUserRole - PATCH /api/admin/users/:id/role (super_admin only)
func AdminChangeUserRole(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		ctx.StopWithJSON(http.StatusBadRequest, iris.Map{"error": "invalid_id"})
		return
	}

	var body struct {
		Role string `json:"role"`
	}
	if err := ctx.ReadJSON(&body); err != nil ||
		(body.Role != "viajero" && body.Role != "empresa" && body.Role != "admin" && body.Role != "super_admin") {
		ctx.StopWithJSON(http.StatusBadRequest, iris.Map{"error": "invalid_role"})
		return
	}

	var user models.User
	if err := storage.DB.First(&user, id).Error; err != nil {
		ctx.StopWithJSON(http.StatusNotFound, iris.Map{"error": "not_found"})
		return
	}

	before := user
	user.Role = body.Role
	if err := storage.DB.Save(&user).Error; err != nil {
		ctx.StopWithJSON(http.StatusInternalServerError, iris.Map{"error": "server_error"})
		return
	}

	utils.Audit(ctx, "user.role_update", "user", user.ID, before, user)

	ctx.JSON(iris.Map{"data": user})
}

// AdminListCompanies - GET /api/admin/companies?status=&q=&page=&per_page=
func AdminListCompanies(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	query := storage.DB.Model(&models.Company{})
	if status := strings.TrimSpace(ctx.URLParamDefault("status", "")); status != "" {
		query = query.Where("status = ?", status)
	}
	if q := strings.TrimSpace(ctx.URLParamDefault("q", "")); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("lower(name) LIKE ? OR lower(city) LIKE ?", like, like)
	}

	var total int64
	query.Count(&total)

	var companies []models.Company
	if err := query.Preload("Owner").Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&companies).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	utils.JSONPage(ctx, companies, page, perPage, total)
}

// AdminUpdateCompanyStatus - PATCH /api/admin/companies/:id/status
// { status, notes }: the approval panel's decision endpoint.
func AdminUpdateCompanyStatus(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	var body struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := ctx.ReadJSON(&body); err != nil ||
		(body.Status != "approved" && body.Status != "rejected" && body.Status != "pending") {
		utils.JSONError(ctx, http.StatusUnprocessableEntity, "invalid_payload", "status must be pending/approved/rejected")
		return
	}

	var company models.Company
	if err := storage.DB.First(&company, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "company not found")
		return
	}

	before := company
	company.Status = body.Status
	company.ReviewNotes = body.Notes
	if err := storage.DB.Save(&company).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	utils.Audit(ctx, "company.status_update", "company", company.ID, before, company)

	notificationService := services.NewNotificationService()
	go notificationService.SendCompanyStatusNotification(&company, body.Status)

	ctx.JSON(iris.Map{"data": company})
}

// AdminListListings - GET /api/admin/listings?status=&page=&per_page=
func AdminListListings(ctx iris.Context) {
	page := ctx.URLParamIntDefault("page", 1)
	perPage := ctx.URLParamIntDefault("per_page", 25)
	if perPage <= 0 || perPage > 100 {
		perPage = 25
	}

	query := storage.DB.Model(&models.Listing{})
	if status := strings.TrimSpace(ctx.URLParamDefault("status", "")); status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	query.Count(&total)

	var listings []models.Listing
	if err := query.Preload("Company").Order("created_at DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&listings).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	utils.JSONPage(ctx, listings, page, perPage, total)
}

// AdminUpdateListingStatus - PATCH /api/admin/listings/:id/status { status, notes }
func AdminUpdateListingStatus(ctx iris.Context) {
	id, err := ctx.Params().GetUint("id")
	if err != nil {
		utils.JSONError(ctx, http.StatusBadRequest, "invalid_id", "invalid id")
		return
	}

	var body struct {
		Status string `json:"status"`
		Notes  string `json:"notes"`
	}
	if err := ctx.ReadJSON(&body); err != nil ||
		(body.Status != "approved" && body.Status != "rejected" && body.Status != "pending") {
		utils.JSONError(ctx, http.StatusUnprocessableEntity, "invalid_payload", "status must be pending/approved/rejected")
		return
	}

	var listing models.Listing
	if err := storage.DB.Preload("Company").First(&listing, id).Error; err != nil {
		utils.JSONError(ctx, http.StatusNotFound, "not_found", "listing not found")
		return
	}

	before := listing
	listing.Status = body.Status
	listing.ReviewNotes = body.Notes
	if err := storage.DB.Save(&listing).Error; err != nil {
		utils.JSONError(ctx, http.StatusInternalServerError, "server_error", err.Error())
		return
	}

	utils.Audit(ctx, "listing.status_update", "listing", listing.ID, before, listing)

	notificationService := services.NewNotificationService()
	go notificationService.SendListingStatusNotification(&listing, listing.Company.OwnerID, body.Status)

	ctx.JSON(iris.Map{"data": listing})
}

// AdminStats - GET /api/admin/stats: headline counts for the dashboard.
func AdminStats(ctx iris.Context) {
	var totalUsers, totalEmpresas, pendingCompanies, approvedCompanies int64
	var pendingListings, approvedListings, totalMessages, totalConversations int64

	storage.DB.Model(&models.User{}).Count(&totalUsers)
	storage.DB.Model(&models.User{}).Where("role = ?", "empresa").Count(&totalEmpresas)
	storage.DB.Model(&models.Company{}).Where("status = ?", "pending").Count(&pendingCompanies)
	storage.DB.Model(&models.Company{}).Where("status = ?", "approved").Count(&approvedCompanies)
	storage.DB.Model(&models.Listing{}).Where("status = ?", "pending").Count(&pendingListings)
	storage.DB.Model(&models.Listing{}).Where("status = ?", "approved").Count(&approvedListings)
	storage.DB.Model(&models.Message{}).Count(&totalMessages)
	storage.DB.Model(&models.Conversation{}).Count(&totalConversations)

	ctx.JSON(iris.Map{
		"data": iris.Map{
			"users":             totalUsers,
			"empresas":          totalEmpresas,
			"pendingCompanies":  pendingCompanies,
			"approvedCompanies": approvedCompanies,
			"pendingListings":   pendingListings,
			"approvedListings":  approvedListings,
			"messages":          totalMessages,
			"conversations":     totalConversations,
		},
		"meta":  iris.Map{},
		"links": iris.Map{},
	})
}

// AdminActivity - GET /api/admin/activity: latest audit entries.
func AdminActivity(ctx iris.Context) {
	limit := ctx.URLParamIntDefault("limit", 50)
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var entries []models.AuditLog
	storage.DB.Order("created_at DESC").Limit(limit).Find(&entries)

	ctx.JSON(iris.Map{"data": entries, "meta": iris.Map{}, "links": iris.Map{}})
}
