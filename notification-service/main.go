package main

import (
	"log"
	"net/http"
	"strings"

	"vinesight-backend/notification-service/handlers"
	"vinesight-backend/notification-service/services"
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

	// Start the WebSocket hub
	services.GetWebSocketManager()

	router := gin.Default()

	// Internal delivery endpoint used by the other services
	router.POST("/api/notifications/send", handlers.SendNotification)

	// WebSocket endpoint
	router.GET("/ws/notifications/:user_id", handlers.HandleWebSocket)
	router.POST("/ws/send", handlers.SendWebSocketMessage)

	// User-facing routes
	api := router.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		api.GET("/notifications", handlers.GetNotifications)
		api.PUT("/notifications/read-all", handlers.MarkAllAsRead)
		api.PUT("/notifications/:id/read", handlers.MarkAsRead)
		api.DELETE("/notifications/:id", handlers.DeleteNotification)
	}

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "healthy",
			"service":     "notification",
			"connections": services.GetWebSocketManager().GetConnectionCount(),
		})
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	port := strings.Split(config.GetConfig().NotificationServiceURL, ":")[2]
	log.Printf("Notification Service starting on port %s...", port)
	router.Run(":" + port)
}
