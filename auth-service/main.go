package main

import (
	"log"
	"net/http"
	"strings"

	"vinesight-backend/auth-service/handlers"
	"vinesight-backend/shared/config"
	"vinesight-backend/shared/database"
	"vinesight-backend/shared/middleware"
	"vinesight-backend/shared/utils/cache"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func main() {

	// Load configuration
	config.LoadConfig()

	// Initialize database
	if err := database.InitDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.CloseDatabase()

	// Redis backs the token blacklist and login rate limiting. The service
	// still works without it, falling back to the database tables.
	if err := cache.InitCacheManager(); err != nil {
		log.Printf("⚠️ Redis unavailable, falling back to database checks: %v", err)
	}

	authHandler := handlers.NewAuthHandler(database.GetDB())

	router := gin.Default()

	// Auth Routes
	router.POST("/api/auth/login", authHandler.Login)
	router.POST("/api/auth/register", authHandler.Register)
	router.POST("/api/auth/refresh", authHandler.Refresh)
	router.POST("/api/auth/logout", authHandler.Logout)
	router.POST("/api/auth/validate", authHandler.Validate)

	// Routes requiring an authenticated caller
	protected := router.Group("/api/auth")
	protected.Use(middleware.AuthMiddleware())
	{
		protected.POST("/switch-organization", authHandler.SwitchOrganization)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "auth",
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := strings.Split(config.GetConfig().AuthServiceURL, ":")[2]
	log.Printf("Auth Service starting on port %s...", port)
	router.Run(":" + port)
}
