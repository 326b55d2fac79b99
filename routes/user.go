package routes

import (
	"encoding/json"
	"log"
	"os"
	"strings"

	"github.com/DAHUB-GUIOT/natur-78-sub003/models"
	"github.com/DAHUB-GUIOT/natur-78-sub003/services"
	"github.com/DAHUB-GUIOT/natur-78-sub003/storage"
	"github.com/DAHUB-GUIOT/natur-78-sub003/utils"
	"github.com/kataras/iris/v12"
	jsonWT "github.com/kataras/iris/v12/middleware/jwt"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/exp/slices"
	"gorm.io/datatypes"
)

func Register(ctx iris.Context) {
	var userInput RegisterUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var newUser models.User
	userExists, userExistsErr := getAndHandleUserExists(&newUser, userInput.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if userExists {
		utils.CreateEmailAlreadyRegistered(ctx)
		return
	}

	hashedPassword, hashErr := hashAndSaltPassword(userInput.Password)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if userInput.PhoneNumber != "" {
		userInput.PhoneNumber = utils.NormalizePhoneNumber(userInput.PhoneNumber)
	}

	verified := false
	newUser = models.User{
		FirstName:     userInput.FirstName,
		LastName:      userInput.LastName,
		Email:         strings.ToLower(userInput.Email),
		PhoneNumber:   userInput.PhoneNumber,
		Password:      hashedPassword,
		CompanyName:   userInput.CompanyName,
		Role:          userInput.Role,
		EmailVerified: &verified,
	}

	if err := storage.DB.Create(&newUser).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	go sendVerificationEmail(newUser)

	returnUser(newUser, ctx)
}

func sendVerificationEmail(user models.User) {
	token, tokenErr := utils.CreateEmailToken(user.ID, user.Email)
	if tokenErr != nil {
		return
	}

	link := os.Getenv("APP_PUBLIC_URL") + "/verificar-correo/" + token
	subject := "Confirma tu correo en Festival NATUR"
	html := `
	<p>¡Bienvenido a Festival NATUR! Confirma tu dirección de correo
	haciendo clic en el siguiente enlace.
	<a href=` + link + `>Confirmar correo</a></p><br />`

	services.SendMail(user.Email, subject, html)
}

func Login(ctx iris.Context) {
	var userInput LoginUserInput
	err := ctx.ReadJSON(&userInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var existingUser models.User
	errorMsg := "Invalid email or password."
	userExists, userExistsErr := getAndHandleUserExists(&existingUser, userInput.Email)
	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if !userExists {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", errorMsg, ctx)
		return
	}

	passwordErr := bcrypt.CompareHashAndPassword([]byte(existingUser.Password), []byte(userInput.Password))
	if passwordErr != nil {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", errorMsg, ctx)
		return
	}

	returnUser(existingUser, ctx)
}

func ForgotPassword(ctx iris.Context) {
	var emailInput EmailRegisteredInput
	err := ctx.ReadJSON(&emailInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	var user models.User
	userExists, userExistsErr := getAndHandleUserExists(&user, emailInput.Email)

	if userExistsErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	if !userExists {
		utils.CreateError(iris.StatusUnauthorized, "Credentials Error", "Invalid email.", ctx)
		return
	}

	token, tokenErr := utils.CreateEmailToken(user.ID, user.Email)
	if tokenErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	link := os.Getenv("APP_PUBLIC_URL") + "/restablecer/" + token
	subject := "¿Olvidaste tu contraseña?"

	html := `
	<p>Parece que olvidaste tu contraseña. Si fue así, haz clic en el
	enlace para restablecerla; si no, ignora este correo. El enlace
	caduca en 10 minutos.
	<a href=` + link + `>Restablecer contraseña</a></p><br />`

	// Provider failures are terminal for this request: report them as a
	// boolean instead of failing the whole call.
	emailSent, emailSentErr := services.SendMail(user.Email, subject, html)
	if emailSentErr != nil {
		log.Printf("password reset email to %s failed: %v", user.Email, emailSentErr)
		emailSent = false
	}

	ctx.JSON(iris.Map{"emailSent": emailSent})
}

func ResetPassword(ctx iris.Context) {
	var passwordInput ResetPasswordInput
	err := ctx.ReadJSON(&passwordInput)
	if err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	hashedPassword, hashErr := hashAndSaltPassword(passwordInput.Password)
	if hashErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	claims := jsonWT.Get(ctx).(*utils.EmailToken)

	if err := storage.DB.Model(&models.User{}).Where("id = ?", claims.ID).
		Update("password", hashedPassword).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"passwordReset": true})
}

// VerifyEmail confirms the address carried by an email-token link.
func VerifyEmail(ctx iris.Context) {
	claims := jsonWT.Get(ctx).(*utils.EmailToken)

	verified := true
	if err := storage.DB.Model(&models.User{}).Where("id = ?", claims.ID).
		Update("email_verified", &verified).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{"emailVerified": true})
}

// SearchUsers allows searching users by name, company or email (auth required)
func SearchUsers(ctx iris.Context) {
	q := ctx.URLParamDefault("q", "")
	limit := ctx.URLParamIntDefault("limit", 20)
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	if len(q) < 1 {
		ctx.JSON(iris.Map{"success": true, "users": []interface{}{}})
		return
	}
	var users []models.User
	search := "%" + q + "%"
	storage.DB.Limit(limit).
		Where("lower(first_name) LIKE lower(?) OR lower(last_name) LIKE lower(?) OR lower(company_name) LIKE lower(?) OR lower(email) LIKE lower(?)",
			search, search, search, search).
		Select("id, first_name, last_name, company_name, avatar_url, role").
		Find(&users)
	ctx.JSON(iris.Map{"success": true, "users": users})
}

func GetUser(ctx iris.Context) {
	user := getUserByID(ctx.Params().Get("id"), ctx)
	if user == nil {
		return
	}

	ctx.JSON(user.PublicProfile())
}

func UpdateUserProfile(ctx iris.Context) {
	var req UpdateProfileInput
	if err := ctx.ReadJSON(&req); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	user := getUserByID(ctx.Params().Get("id"), ctx)
	if user == nil {
		return
	}

	if req.FirstName != "" {
		user.FirstName = req.FirstName
	}
	if req.LastName != "" {
		user.LastName = req.LastName
	}
	if req.CompanyName != "" {
		user.CompanyName = req.CompanyName
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.City != "" {
		user.City = req.City
	}
	if req.Country != "" {
		user.Country = req.Country
	}
	if req.Lat != 0 || req.Lng != 0 {
		user.Lat = req.Lat
		user.Lng = req.Lng
	}
	if req.PhoneNumber != "" {
		user.PhoneNumber = utils.NormalizePhoneNumber(req.PhoneNumber)
	}
	if req.AvatarURL != "" {
		avatarURL := req.AvatarURL
		if !strings.Contains(avatarURL, "res.cloudinary.com") {
			urlMap := storage.UploadBase64Image(avatarURL, "user/"+ctx.Params().Get("id")+"/avatar")
			if urlMap != nil && urlMap["url"] != "" {
				avatarURL = urlMap["url"]
			}
		}
		user.AvatarURL = avatarURL
	}
	if req.Languages != nil {
		languagesJSON, _ := json.Marshal(req.Languages)
		user.Languages = datatypes.JSON(languagesJSON)
	}

	if err := storage.DB.Save(user).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(user)
}

// AlterSavedListings adds or removes a marketplace listing from the caller's
// favorites.
func AlterSavedListings(ctx iris.Context) {
	var req AlterSavedListingsInput
	if err := ctx.ReadJSON(&req); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	user := getUserByID(ctx.Params().Get("id"), ctx)
	if user == nil {
		return
	}

	savedListings := []uint{}
	if user.SavedListings != nil {
		json.Unmarshal(user.SavedListings, &savedListings)
	}

	switch req.Op {
	case "add":
		if !slices.Contains(savedListings, req.ListingID) {
			savedListings = append(savedListings, req.ListingID)
		}
	case "remove":
		if idx := slices.Index(savedListings, req.ListingID); idx >= 0 {
			savedListings = slices.Delete(savedListings, idx, idx+1)
		}
	default:
		utils.CreateError(iris.StatusUnprocessableEntity, "Validation error",
			"op must be add or remove", ctx)
		return
	}

	savedJSON, _ := json.Marshal(savedListings)
	user.SavedListings = datatypes.JSON(savedJSON)

	if err := storage.DB.Model(user).Update("saved_listings", user.SavedListings).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}

// AllowsEmails toggles email notifications for the caller.
func AllowsEmails(ctx iris.Context) {
	var req AllowsEmailsInput
	if err := ctx.ReadJSON(&req); err != nil {
		utils.HandleValidationErrors(err, ctx)
		return
	}

	user := getUserByID(ctx.Params().Get("id"), ctx)
	if user == nil {
		return
	}

	if err := storage.DB.Model(user).Update("allows_emails", req.AllowsEmails).Error; err != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.StatusCode(iris.StatusNoContent)
}

func getAndHandleUserExists(user *models.User, email string) (exists bool, err error) {
	userExistsQuery := storage.DB.Where("email = ?", strings.ToLower(email)).Limit(1).Find(&user)

	if userExistsQuery.Error != nil {
		return false, userExistsQuery.Error
	}

	return userExistsQuery.RowsAffected > 0, nil
}

func hashAndSaltPassword(password string) (hashedPassword string, err error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

func getUserByID(id string, ctx iris.Context) *models.User {
	var user models.User
	userExists := storage.DB.Where("id = ?", id).Find(&user)

	if userExists.Error != nil {
		utils.CreateInternalServerError(ctx)
		return nil
	}

	if userExists.RowsAffected == 0 {
		utils.CreateError(iris.StatusNotFound, "Not Found", "User not found", ctx)
		return nil
	}

	return &user
}

func returnUser(user models.User, ctx iris.Context) {
	tokenPair, tokenErr := utils.CreateTokenPair(user.ID)
	if tokenErr != nil {
		utils.CreateInternalServerError(ctx)
		return
	}

	ctx.JSON(iris.Map{
		"ID":            user.ID,
		"firstName":     user.FirstName,
		"lastName":      user.LastName,
		"email":         user.Email,
		"phoneNumber":   user.PhoneNumber,
		"companyName":   user.CompanyName,
		"role":          user.Role,
		"emailVerified": user.EmailVerified,
		"savedListings": user.SavedListings,
		"allowsEmails":  user.AllowsEmails,
		"accessToken":   string(tokenPair.AccessToken),
		"refreshToken":  string(tokenPair.RefreshToken),
	})
}

type RegisterUserInput struct {
	FirstName   string `json:"firstName" validate:"required,max=256"`
	LastName    string `json:"lastName" validate:"required,max=256"`
	Email       string `json:"email" validate:"required,max=256,email"`
	Password    string `json:"password" validate:"required,min=8,max=256"`
	Role        string `json:"role" validate:"required,oneof=viajero empresa"`
	CompanyName string `json:"companyName" validate:"omitempty,max=256"`
	PhoneNumber string `json:"phoneNumber"`
}

type LoginUserInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type EmailRegisteredInput struct {
	Email string `json:"email" validate:"required"`
}

type ResetPasswordInput struct {
	Password string `json:"password" validate:"required,min=8,max=256"`
}

type UpdateProfileInput struct {
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	CompanyName string   `json:"companyName"`
	AvatarURL   string   `json:"avatarURL"`
	PhoneNumber string   `json:"phoneNumber"`
	Bio         string   `json:"bio"`
	City        string   `json:"city"`
	Country     string   `json:"country"`
	Lat         float32  `json:"lat"`
	Lng         float32  `json:"lng"`
	Languages   []string `json:"languages"`
}

type AlterSavedListingsInput struct {
	ListingID uint   `json:"listingID" validate:"required"`
	Op        string `json:"op" validate:"required"`
}

type AllowsEmailsInput struct {
	AllowsEmails *bool `json:"allowsEmails" validate:"required"`
}
