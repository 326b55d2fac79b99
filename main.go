package main

import (
	"fmt"
	"log"
	"os"

	"github.com/DAHUB-GUIOT/natur-78-sub003/routes"
	"github.com/DAHUB-GUIOT/natur-78-sub003/storage"
	"github.com/DAHUB-GUIOT/natur-78-sub003/utils"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"
)

func main() {
	// Only load .env in development
	if os.Getenv("APP_ENV") != "production" {
		godotenv.Load()
	}

	// Initialize services
	storage.InitializeDB()
	storage.InitializeRedis()

	app := iris.New()
	app.Validator = validator.New()

	// CORS configuration
	app.AllowMethods(iris.MethodOptions)
	app.UseRouter(func(ctx iris.Context) {
		ctx.Header("Access-Control-Allow-Origin", ctx.GetHeader("Origin"))
		ctx.Header("Vary", "Origin")
		ctx.Header("Access-Control-Allow-Credentials", "true")
		ctx.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Requested-With")
		ctx.Header("Access-Control-Allow-Methods", "GET,POST,PATCH,PUT,DELETE,OPTIONS")
		if ctx.Method() == iris.MethodOptions {
			ctx.StatusCode(iris.StatusNoContent)
			return
		}
		ctx.Next()
	})

	app.Use(iris.Compression)

	// JWT Verifiers
	emailTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("EMAIL_TOKEN_SECRET")))
	emailTokenVerifier.WithDefaultBlocklist()
	emailTokenVerifierMiddleware := emailTokenVerifier.Verify(func() interface{} {
		return new(utils.EmailToken)
	})

	accessTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("ACCESS_TOKEN_SECRET")))
	accessTokenVerifier.WithDefaultBlocklist()
	accessTokenVerifierMiddleware := accessTokenVerifier.Verify(func() interface{} {
		return new(utils.AccessToken)
	})

	refreshTokenVerifier := jwt.NewVerifier(jwt.HS256, []byte(os.Getenv("REFRESH_TOKEN_SECRET")))
	refreshTokenVerifier.WithDefaultBlocklist()
	refreshTokenVerifierMiddleware := refreshTokenVerifier.Verify(func() interface{} {
		return new(jwt.Claims)
	})

	refreshTokenVerifier.Extractors = append(refreshTokenVerifier.Extractors, func(ctx iris.Context) string {
		var tokenInput utils.RefreshTokenInput
		err := ctx.ReadJSON(&tokenInput)
		if err != nil {
			return ""
		}
		return tokenInput.RefreshToken
	})

	// Health check endpoint
	app.Get("/health", func(ctx iris.Context) {
		ctx.JSON(iris.Map{"status": "ok"})
	})

	// Routes
	user := app.Party("/api/user")
	{
		user.Post("/register", routes.Register)
		user.Post("/login", routes.Login)
		user.Post("/forgotpassword", routes.ForgotPassword)
		user.Post("/resetpassword", emailTokenVerifierMiddleware, routes.ResetPassword)
		user.Post("/verifyemail", emailTokenVerifierMiddleware, routes.VerifyEmail)
		user.Get("/search", accessTokenVerifierMiddleware, routes.SearchUsers)
		user.Get("/{id}", accessTokenVerifierMiddleware, routes.GetUser)
		user.Patch("/{id}/profile", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.UpdateUserProfile)
		user.Patch("/{id}/listings/saved", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AlterSavedListings)
		user.Patch("/{id}/settings/emails", accessTokenVerifierMiddleware, utils.UserIDMiddleware, routes.AllowsEmails)
	}

	company := app.Party("/api/companies")
	{
		company.Get("/", routes.ListCompanies)
		company.Get("/{id:uint}", routes.GetCompany)
		company.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreateCompany)
		company.Get("/mine", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetMyCompany)
		company.Put("/mine", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.UpdateCompany)
	}

	listing := app.Party("/api/listings")
	{
		listing.Get("/", routes.ListListings)
		listing.Get("/{id:uint}", routes.GetListing)
		listing.Post("/", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.CreateListing)
		listing.Get("/mine", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.GetMyListings)
		listing.Put("/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.UpdateListing)
		listing.Delete("/{id:uint}", accessTokenVerifierMiddleware, utils.UserIDFromTokenMiddleware, routes.DeleteListing)
	}

	mapParty := app.Party("/api/map")
	{
		mapParty.Post("/listings", routes.GetListingsByBoundingBox)
		mapParty.Get("/near/{venue}", routes.GetListingsNearVenue)
		mapParty.Get("/venues", routes.GetVenues)
		mapParty.Get("/companies", routes.GetCompanyPins)
	}

	conversation := app.Party("/api/conversations")
	{
		conversation.Post("/", accessTokenVerifierMiddleware, routes.CreateConversation)
		conversation.Post("/{id:uint}/typing", accessTokenVerifierMiddleware, routes.Typing)
		conversation.Get("/{id:uint}/typing", accessTokenVerifierMiddleware, routes.ListTyping)
	}

	messages := app.Party("/api/messages")
	{
		messages.Post("/", accessTokenVerifierMiddleware, routes.CreateMessage)
		messages.Get("/conversations", accessTokenVerifierMiddleware, routes.GetConversations)
		messages.Get("/conversations/enhanced", accessTokenVerifierMiddleware, routes.GetEnhancedConversations)
		messages.Get("/{conversationID:uint}", accessTokenVerifierMiddleware, routes.GetConversationMessages)
	}

	app.Get("/api/geocode", routes.GeocodeSearch)

	admin := app.Party("/api/admin", accessTokenVerifierMiddleware, utils.AdminOnlyMiddleware)
	{
		admin.Get("/users", routes.AdminListUsers)
		admin.Get("/users/{id:uint}", routes.AdminGetUser)
		admin.Patch("/users/{id:uint}/role", utils.SuperAdminOnlyMiddleware, routes.AdminChangeUserRole)
		admin.Get("/companies", routes.AdminListCompanies)
		admin.Patch("/companies/{id:uint}/status", routes.AdminUpdateCompanyStatus)
		admin.Get("/listings", routes.AdminListListings)
		admin.Patch("/listings/{id:uint}/status", routes.AdminUpdateListingStatus)
		admin.Get("/stats", routes.AdminStats)
		admin.Get("/activity", routes.AdminActivity)
	}

	app.Post("/api/refresh", refreshTokenVerifierMiddleware, utils.RefreshToken)

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "4000"
	}
	addr := "0.0.0.0:" + port

	fmt.Printf("Server starting on %s\n", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
