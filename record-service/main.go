package main

import (
	"log"
	"net/http"
	"strings"

	"vinesight-backend/record-service/handlers"
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
		// Record Routes
		api.GET("/records", handlers.GetRecords)
		api.POST("/records", handlers.CreateRecord)
		api.GET("/records/:id", handlers.GetRecord)
		api.PUT("/records/:id", handlers.UpdateRecord)
		api.DELETE("/records/:id", handlers.DeleteRecord)

		// Task Routes
		api.GET("/tasks", handlers.GetTasks)
		api.POST("/tasks", handlers.CreateTask)
		api.PUT("/tasks/:id", handlers.UpdateTask)
		api.DELETE("/tasks/:id", handlers.DeleteTask)

		// Advisor Routes
		api.POST("/farms/:id/recommendations", handlers.GenerateRecommendations)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "record",
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := strings.Split(config.GetConfig().RecordServiceURL, ":")[2]
	log.Printf("Record Service starting on port %s...", port)
	router.Run(":" + port)
}
