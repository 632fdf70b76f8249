package main

import (
	"log"
	"net/http"
	"os"

	controller "github.com/caseboard/caseboard/controller"
	"github.com/caseboard/caseboard/initializers"
	middleware "github.com/caseboard/caseboard/middleware"
	service "github.com/caseboard/caseboard/service"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
)

func init() {
	if err := initializers.LoadEnv(); err != nil {
		log.Fatalf("[CRITICAL] Failed to load env: %s", err)
	}
	if err := initializers.ConnectDB(); err != nil {
		log.Fatalf("[CRITICAL] Failed to initialize database connection: %s", err)
	}
	if err := initializers.Migrate(); err != nil {
		log.Fatalf("[CRITICAL] Failed to run database migrations: %s", err)
	}
}

func main() {
	searchService, err := service.NewSearchService()
	if err != nil {
		log.Fatalf("Failed to initialize search service: %s", err)
	}

	// `caseboard seed` loads the CSV data and exits.
	if len(os.Args) > 1 && os.Args[1] == "seed" {
		seedService, err := service.NewSeedService(initializers.DB, searchService)
		if err != nil {
			log.Fatalf("Failed to initialize seed service: %s", err)
		}
		if err := seedService.LoadSeedData(); err != nil {
			log.Fatalf("Failed to load seed data: %s", err)
		}
		return
	}

	secret := os.Getenv("SESSION_SECRET")
	if secret == "" {
		log.Fatal("[CRITICAL] SESSION_SECRET environment variable is not set")
	}
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
	}

	dashboardService := service.NewDashboardService(initializers.DB)
	authService := service.NewAuthService(initializers.DB)

	dashboardController := controller.NewDashboardController(dashboardService, searchService)
	authController := controller.NewAuthController(authService, store)

	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.GlobalRateLimiter.Limit())

	// The dashboard page and its assets
	router.Static("/static", "./static")
	router.GET("/", func(c *gin.Context) {
		c.File("./static/index.html")
	})

	// Healthcheck endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	// Auth endpoints with stricter rate limiting (they send mail)
	router.POST("/auth/register",
		middleware.AuthRateLimiter.Limit(),
		authController.Register)
	router.POST("/auth/login",
		middleware.AuthRateLimiter.Limit(),
		authController.Login)
	router.GET("/auth/callback", authController.Callback)
	router.POST("/auth/logout", authController.Logout)
	router.GET("/auth/me", authController.Me)

	// Dashboard data endpoints behind the session gate
	dashboard := router.Group("/dashboard", middleware.RequireUser(store))
	dashboard.GET("/actions", dashboardController.GetLegalActions)
	dashboard.GET("/options", dashboardController.GetFilterOptions)
	dashboard.GET("/summary", dashboardController.GetSummary)

	router.GET("/search", middleware.RequireUser(store), dashboardController.SearchActions)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	router.Run(":" + port)
}
