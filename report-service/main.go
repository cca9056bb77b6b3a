package main

import (
	"log"
	"net/http"
	"strings"

	"vinesight-backend/report-service/handlers"
	"vinesight-backend/report-service/services"
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

	// Export storage
	minioService, err := services.NewMinIOService()
	if err != nil {
		log.Fatalf("Failed to initialize MinIO: %v", err)
	}

	// Authorization engine, audit recorder, report builder
	if err := handlers.Init(minioService); err != nil {
		log.Fatalf("Failed to initialize authorization engine: %v", err)
	}

	router := gin.Default()

	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		api.GET("/reports/farms/:id/summary", handlers.GetFarmSummary)
		api.POST("/reports/farms/:id/export", handlers.ExportFarmRecords)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "report",
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := strings.Split(config.GetConfig().ReportServiceURL, ":")[2]
	log.Printf("Report Service starting on port %s...", port)
	router.Run(":" + port)
}
