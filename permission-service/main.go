package main

import (
	"log"
	"net/http"
	"strings"

	"vinesight-backend/permission-service/handlers"
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

	// Build the authorization engine; an incomplete permission matrix is
	// fatal at startup, never a runtime surprise.
	if err := handlers.InitEngine(); err != nil {
		log.Fatalf("Failed to initialize authorization engine: %v", err)
	}

	router := gin.Default()

	// Permission Check Routes
	router.POST("/api/permissions/check", handlers.CheckPermission)
	router.POST("/api/permissions/batch-check", handlers.BatchCheckPermissions)

	// Permission Matrix Routes (read-only)
	router.GET("/api/permissions/matrix", handlers.GetPermissionMatrix)
	router.GET("/api/permissions/matrix/:role", handlers.GetRolePermissions)

	// Audit Log Routes (read-only; entries are written in-process by the
	// services that perform the mutations). The handler re-checks settings
	// read in the requested organization against the authenticated actor.
	audited := router.Group("/api/permissions")
	audited.Use(middleware.AuthMiddleware())
	{
		audited.GET("/audit/:org_id", handlers.GetAuditLogs)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "permission",
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := strings.Split(config.GetConfig().PermissionServiceURL, ":")[2]
	log.Printf("Permission Service starting on port %s...", port)
	router.Run(":" + port)
}
