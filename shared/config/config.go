package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// JWT
	JWTSecret            string
	JWTExpireHours       string
	JWTRefreshExpireDays string

	// API Gateway URL
	APIGatewayURL string

	// Platform Admin
	PlatformAdminEmail    string
	PlatformAdminPassword string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       string

	// Rate Limiting
	RateLimitMaxRequests          string
	RateLimitTimeWindowSeconds    string
	RateLimitBlockDurationMinutes string

	// Login Rate Limiting
	LoginRateLimitMaxAttempts   string
	LoginRateLimitWindowSeconds string
	LoginRateLimitBlockMinutes  string

	// Frontend URL
	FrontendURL string

	// Service URLs (Dynamic based on environment)
	AuthServiceURL         string
	PermissionServiceURL   string
	CoreServiceURL         string
	RecordServiceURL       string
	ReportServiceURL       string
	NotificationServiceURL string

	// MinIO Configuration (report exports)
	MinIOServerURL     string
	MinIORootUser      string
	MinIORootPassword  string
	MinIOUseSSL        bool
	MinIOExportsBucket string

	// Report Service Configuration
	ReportExportURLExpireMinutes string

	// Demo data seeding
	SeedDemoData bool
}

var cfg *Config

// LoadConfig loads configuration from environment variables
func LoadConfig() {
	envPaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	envLoaded := false
	for _, path := range envPaths {
		if err := godotenv.Load(path); err == nil {
			log.Printf("✅ Environment loaded from: %s", path)
			envLoaded = true
			break
		}
	}

	if !envLoaded {
		log.Println("Warning: .env file not found, using system environment variables")
	}

	cfg = &Config{
		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", ""),
		DBName:     getEnv("DB_NAME", "vinesight"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// JWT
		JWTSecret:            getEnv("JWT_SECRET", "your-secret-key-change-this"),
		JWTExpireHours:       getEnv("JWT_EXPIRE_HOURS", "3"),
		JWTRefreshExpireDays: getEnv("JWT_REFRESH_EXPIRE_DAYS", "1"),

		// API Gateway URL
		APIGatewayURL: getEnv("API_GATEWAY_URL", "http://localhost:8000"),

		// Platform Admin
		PlatformAdminEmail:    getEnv("PLATFORM_ADMIN_EMAIL", "admin@vinesight.app"),
		PlatformAdminPassword: getEnv("PLATFORM_ADMIN_PASSWORD", "admin123"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnv("REDIS_DB", "0"),

		// Rate Limiting
		RateLimitMaxRequests:          getEnv("RATE_LIMIT_MAX_REQUESTS", "100"),
		RateLimitTimeWindowSeconds:    getEnv("RATE_LIMIT_TIME_WINDOW_SECONDS", "60"),
		RateLimitBlockDurationMinutes: getEnv("RATE_LIMIT_BLOCK_DURATION_MINUTES", "15"),

		// Login Rate Limiting
		LoginRateLimitMaxAttempts:   getEnv("LOGIN_RATE_LIMIT_MAX_ATTEMPTS", "5"),
		LoginRateLimitWindowSeconds: getEnv("LOGIN_RATE_LIMIT_WINDOW_SECONDS", "300"),
		LoginRateLimitBlockMinutes:  getEnv("LOGIN_RATE_LIMIT_BLOCK_MINUTES", "30"),

		// Frontend URL
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		// Service URLs - Environment-based configuration
		AuthServiceURL:         getEnv("AUTH_SERVICE_URL", "http://localhost:8001"),
		PermissionServiceURL:   getEnv("PERMISSION_SERVICE_URL", "http://localhost:8002"),
		CoreServiceURL:         getEnv("CORE_SERVICE_URL", "http://localhost:8003"),
		RecordServiceURL:       getEnv("RECORD_SERVICE_URL", "http://localhost:8004"),
		ReportServiceURL:       getEnv("REPORT_SERVICE_URL", "http://localhost:8005"),
		NotificationServiceURL: getEnv("NOTIFICATION_SERVICE_URL", "http://localhost:8006"),

		// MinIO Configuration
		MinIOServerURL:     getEnv("MINIO_SERVER_URL", "http://localhost:9000"),
		MinIORootUser:      getEnv("MINIO_ROOT_USER", "minioadmin"),
		MinIORootPassword:  getEnv("MINIO_ROOT_PASSWORD", "minioadmin"),
		MinIOUseSSL:        getEnvAsBool("MINIO_USE_SSL", false),
		MinIOExportsBucket: getEnv("MINIO_EXPORTS_BUCKET", "vinesight-exports"),

		// Report Service Configuration
		ReportExportURLExpireMinutes: getEnv("REPORT_EXPORT_URL_EXPIRE_MINUTES", "60"),

		// Demo data seeding
		SeedDemoData: getEnvAsBool("SEED_DEMO_DATA", false),
	}

	log.Println("✅ Configuration loaded successfully")
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	if cfg == nil {
		LoadConfig()
	}
	return cfg
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetRateLimitMaxRequests returns the rate limit max requests as integer
func (c *Config) GetRateLimitMaxRequests() int {
	return atoiOr(c.RateLimitMaxRequests, 100)
}

// GetRateLimitTimeWindowSeconds returns the rate limit time window as integer
func (c *Config) GetRateLimitTimeWindowSeconds() int {
	return atoiOr(c.RateLimitTimeWindowSeconds, 60)
}

// GetRateLimitBlockDurationMinutes returns the rate limit block duration as integer
func (c *Config) GetRateLimitBlockDurationMinutes() int {
	return atoiOr(c.RateLimitBlockDurationMinutes, 15)
}

// GetLoginRateLimitMaxAttempts returns max failed logins before blocking
func (c *Config) GetLoginRateLimitMaxAttempts() int {
	return atoiOr(c.LoginRateLimitMaxAttempts, 5)
}

// GetLoginRateLimitWindowSeconds returns the failed-login counting window
func (c *Config) GetLoginRateLimitWindowSeconds() int {
	return atoiOr(c.LoginRateLimitWindowSeconds, 300)
}

// GetLoginRateLimitBlockMinutes returns the login block duration
func (c *Config) GetLoginRateLimitBlockMinutes() int {
	return atoiOr(c.LoginRateLimitBlockMinutes, 30)
}

// GetReportExportURLExpireMinutes returns presigned URL lifetime for exports
func (c *Config) GetReportExportURLExpireMinutes() int {
	return atoiOr(c.ReportExportURLExpireMinutes, 60)
}

func atoiOr(value string, defaultValue int) int {
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
