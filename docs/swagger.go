// Package docs VineSight API documentation
package docs

// Swagger documentation info
// @title VineSight API
// @version 1.0
// @description Central API documentation - For all VineSight microservices

// @contact.name API Support
// @contact.email support@vinesight.app

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

// Auth Service Endpoints
// @tag.name auth
// @tag.description Authentication and session management

// Core Service Endpoints
// @tag.name organizations
// @tag.description Organization management
// @tag.name members
// @tag.description Organization membership management
// @tag.name farms
// @tag.description Farm management

// Record Service Endpoints
// @tag.name records
// @tag.description Farm record management
// @tag.name tasks
// @tag.description Task management

// Report Service Endpoints
// @tag.name reports
// @tag.description Farm summaries and CSV exports

// Notification Service Endpoints
// @tag.name notifications
// @tag.description In-app notifications
