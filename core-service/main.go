package main

import (
	"log"
	"net/http"
	"strings"

	"vinesight-backend/core-service/handlers"
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

	if err := cache.InitCacheManager(); err != nil {
		log.Printf("⚠️ Redis unavailable, token revocation checks fall back to the database: %v", err)
	}

	// Authorization engine and audit recorder
	if err := handlers.Init(); err != nil {
		log.Fatalf("Failed to initialize authorization engine: %v", err)
	}

	router := gin.Default()

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		// Organization Routes
		api.GET("/organizations", handlers.GetOrganizations)
		api.POST("/organizations", handlers.CreateOrganization)
		api.GET("/organizations/:id", handlers.GetOrganization)
		api.PUT("/organizations/:id", handlers.UpdateOrganization)
		api.DELETE("/organizations/:id", handlers.DeleteOrganization)

		// Membership Routes
		api.GET("/organizations/:id/members", handlers.GetMembers)
		api.POST("/organizations/:id/members", handlers.InviteMember)
		api.PUT("/organizations/:id/members/:member_id", handlers.UpdateMember)
		api.DELETE("/organizations/:id/members/:member_id", handlers.RemoveMember)

		// Farm Routes
		api.GET("/farms", handlers.GetFarms)
		api.POST("/farms", handlers.CreateFarm)
		api.GET("/farms/:id", handlers.GetFarm)
		api.PUT("/farms/:id", handlers.UpdateFarm)
		api.DELETE("/farms/:id", handlers.DeleteFarm)

		// User Profile Routes
		api.GET("/users/me", handlers.GetMe)
		api.PUT("/users/me", handlers.UpdateMe)
		api.PUT("/users/me/password", handlers.ChangePassword)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "core",
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := strings.Split(config.GetConfig().CoreServiceURL, ":")[2]
	log.Printf("Core Service starting on port %s...", port)
	router.Run(":" + port)
}
