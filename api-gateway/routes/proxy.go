package routes

import (
	"net/http"
	"net/http/httputil"
	"net/url"

	"vinesight-backend/shared/config"

	"github.com/gin-gonic/gin"
)

// getServiceURLs returns service URLs from configuration
func getServiceURLs() map[string]string {
	cfg := config.GetConfig()
	return map[string]string{
		"auth":         cfg.AuthServiceURL,
		"permissions":  cfg.PermissionServiceURL,
		"core":         cfg.CoreServiceURL,
		"record":       cfg.RecordServiceURL,
		"report":       cfg.ReportServiceURL,
		"notification": cfg.NotificationServiceURL,
	}
}

// ProxyToService proxies the request to the named backend service
func ProxyToService(serviceName string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		serviceURLs := getServiceURLs()

		serviceURL, exists := serviceURLs[serviceName]
		if !exists {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Service not found", "service": serviceName})
			return
		}

		target, err := url.Parse(serviceURL)
		if err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid service URL", "service": serviceName})
			return
		}

		proxy := httputil.NewSingleHostReverseProxy(target)
		proxy.ServeHTTP(ctx.Writer, ctx.Request)
	}
}
