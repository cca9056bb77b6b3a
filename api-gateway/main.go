package main

import (
	"log"
	"net/http"
	"strings"
	"time"

	"vinesight-backend/api-gateway/middleware"
	"vinesight-backend/api-gateway/routes"
	"vinesight-backend/shared/clients"
	"vinesight-backend/shared/config"

	_ "vinesight-backend/docs/swagger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title VineSight API
// @version 1.0
// @description Complete API documentation for the VineSight farm management platform

// @contact.name API Support
// @contact.email support@vinesight.app

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8000
// @BasePath /api
// @schemes http https

// @tag.name auth
// @tag.description Authentication operations

// @tag.name organizations
// @tag.description Organization management operations

// @tag.name members
// @tag.description Organization membership operations

// @tag.name farms
// @tag.description Farm management operations

// @tag.name records
// @tag.description Farm record operations

// @tag.name tasks
// @tag.description Task management operations

// @tag.name reports
// @tag.description Reporting and export operations

// @tag.name notifications
// @tag.description Notification operations

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

func main() {
	// Load configuration
	config.LoadConfig()

	// Initialize permission client with config-based URL
	clients.InitPermissionClient()

	// Initialize global rate limiter
	rateLimiter := middleware.NewRateLimiter(5 * time.Minute) // Cleanup every 5 minutes

	// Global rate limit configuration from environment variables
	globalRateConfig := middleware.NewRateLimitConfig()

	router := gin.Default()

	// Add CORS middleware
	router.Use(cors.Default())

	// Global rate limiter middleware
	router.Use(rateLimiter.GlobalRateLimitMiddleware(globalRateConfig))

	// Add unified response middleware (transforms all service responses)
	router.Use(middleware.UnifiedResponseMiddleware())

	// Health check endpoint
	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "API Gateway is running", "Port": "8000"})
	})

	// Auth routes (no permission required for login/register)
	// Note: Auth Service has its own internal rate limiting
	router.Any("/api/auth/*path",
		routes.ProxyToService("auth"))

	// Permission service routes
	router.POST("/api/permissions/check",
		middleware.RequireAuth(),
		routes.ProxyToService("permissions"))
	router.POST("/api/permissions/batch-check",
		middleware.RequireAuth(),
		routes.ProxyToService("permissions"))
	router.GET("/api/permissions/matrix",
		middleware.RequireAuth(),
		routes.ProxyToService("permissions"))
	router.GET("/api/permissions/matrix/:role",
		middleware.RequireAuth(),
		routes.ProxyToService("permissions"))
	router.GET("/api/permissions/audit/:org_id",
		middleware.RequirePermission("settings", "read"),
		routes.ProxyToService("permissions"))

	// Organization routes
	// Membership presence and owner-only rules are enforced by the core
	// service, so listing and creation only need a valid token.
	router.GET("/api/organizations",
		middleware.RequireAuth(),
		routes.ProxyToService("core"))
	router.POST("/api/organizations",
		middleware.RequireAuth(),
		routes.ProxyToService("core"))
	router.GET("/api/organizations/:id",
		middleware.RequireAuth(),
		routes.ProxyToService("core"))
	router.PUT("/api/organizations/:id",
		middleware.RequirePermission("settings", "update"),
		routes.ProxyToService("core"))
	router.DELETE("/api/organizations/:id",
		middleware.RequireAuth(),
		routes.ProxyToService("core"))

	// Membership routes
	router.GET("/api/organizations/:id/members",
		middleware.RequirePermission("users", "read"),
		routes.ProxyToService("core"))
	router.POST("/api/organizations/:id/members",
		middleware.RequirePermission("users", "create"),
		routes.ProxyToService("core"))
	router.PUT("/api/organizations/:id/members/:member_id",
		middleware.RequirePermission("users", "update"),
		routes.ProxyToService("core"))
	router.DELETE("/api/organizations/:id/members/:member_id",
		middleware.RequirePermission("users", "delete"),
		routes.ProxyToService("core"))

	// Farm routes
	// Farm-scoped decisions depend on the farm's own tenant and assigned
	// farm lists, so they are evaluated inside the core service.
	router.GET("/api/farms",
		middleware.RequireAuth(),
		routes.ProxyToService("core"))
	router.POST("/api/farms",
		middleware.RequireAuth(),
		routes.ProxyToService("core"))
	router.GET("/api/farms/:id",
		middleware.RequireAuth(),
		routes.ProxyToService("core"))
	router.PUT("/api/farms/:id",
		middleware.RequireAuth(),
		routes.ProxyToService("core"))
	router.DELETE("/api/farms/:id",
		middleware.RequireAuth(),
		routes.ProxyToService("core"))

	// User profile routes
	router.GET("/api/users/me",
		middleware.RequireAuth(),
		routes.ProxyToService("core"))
	router.PUT("/api/users/me",
		middleware.RequireAuth(),
		routes.ProxyToService("core"))
	router.PUT("/api/users/me/password",
		middleware.RequireAuth(),
		routes.ProxyToService("core"))

	// Record routes (per-type resource checks happen in the record service)
	router.GET("/api/records",
		middleware.RequireAuth(),
		routes.ProxyToService("record"))
	router.POST("/api/records",
		middleware.RequireAuth(),
		routes.ProxyToService("record"))
	router.GET("/api/records/:id",
		middleware.RequireAuth(),
		routes.ProxyToService("record"))
	router.PUT("/api/records/:id",
		middleware.RequireAuth(),
		routes.ProxyToService("record"))
	router.DELETE("/api/records/:id",
		middleware.RequireAuth(),
		routes.ProxyToService("record"))

	// Task routes
	router.GET("/api/tasks",
		middleware.RequireAuth(),
		routes.ProxyToService("record"))
	router.POST("/api/tasks",
		middleware.RequireAuth(),
		routes.ProxyToService("record"))
	router.PUT("/api/tasks/:id",
		middleware.RequireAuth(),
		routes.ProxyToService("record"))
	router.DELETE("/api/tasks/:id",
		middleware.RequireAuth(),
		routes.ProxyToService("record"))

	// Recommendation routes
	router.POST("/api/farms/:id/recommendations",
		middleware.RequireAuth(),
		routes.ProxyToService("record"))

	// Report routes
	router.GET("/api/reports/farms/:id/summary",
		middleware.RequireAuth(),
		routes.ProxyToService("report"))
	router.POST("/api/reports/farms/:id/export",
		middleware.RequireAuth(),
		routes.ProxyToService("report"))

	// Notification routes
	router.GET("/api/notifications",
		middleware.RequireAuth(),
		routes.ProxyToService("notification"))
	router.PUT("/api/notifications/read-all",
		middleware.RequireAuth(),
		routes.ProxyToService("notification"))
	router.PUT("/api/notifications/:id/read",
		middleware.RequireAuth(),
		routes.ProxyToService("notification"))
	router.DELETE("/api/notifications/:id",
		middleware.RequireAuth(),
		routes.ProxyToService("notification"))

	// WebSocket routes
	router.GET("/ws/notifications/:user_id",
		routes.ProxyToService("notification"))

	// Swagger documentation UI
	router.GET("/swagger/*any", func(c *gin.Context) {
		if gin.Mode() == gin.DebugMode {
			ginSwagger.WrapHandler(swaggerFiles.Handler)(c)
		} else {
			c.JSON(http.StatusNotFound, gin.H{
				"message": "Swagger documentation not available in production",
			})
		}
	})

	// Server Start
	port := strings.Split(config.GetConfig().APIGatewayURL, ":")[2]
	log.Printf("API Gateway is running on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
