package middleware

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// UnifiedResponse represents the standard API response format
type UnifiedResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
	Meta    *MetaInfo   `json:"meta"`
}

// ErrorInfo represents error details
type ErrorInfo struct {
	Code    string `json:"code"`
	Details string `json:"details"`
}

// MetaInfo represents response metadata
type MetaInfo struct {
	RequestID     string `json:"request_id"`
	Timestamp     string `json:"timestamp"`
	ExecutionTime string `json:"execution_time"`
	Method        string `json:"method"`
	Path          string `json:"path"`
}

// responseWriter wraps gin.ResponseWriter to capture the proxied body
type responseWriter struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (w *responseWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *responseWriter) WriteHeader(status int) {
	w.status = status
}

// UnifiedResponseMiddleware wraps every proxied response in the standard
// envelope so clients see one format no matter which service answered.
func UnifiedResponseMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		requestID := uuid.New().String()
		c.Set("request_id", requestID)

		if shouldSkipUnifiedResponse(c) {
			c.Next()
			return
		}

		w := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
			status:         200,
		}
		c.Writer = w

		c.Next()

		executionTime := time.Since(startTime)
		unified := transformToUnifiedResponse(c, w.body.String(), w.status, requestID, executionTime)

		c.Writer = w.ResponseWriter
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Writer.WriteHeader(w.status)
		payload, _ := json.Marshal(unified)
		c.Writer.Write(payload)
	}
}

func transformToUnifiedResponse(c *gin.Context, originalResponse string, statusCode int, requestID string, executionTime time.Duration) UnifiedResponse {
	isSuccess := statusCode >= 200 && statusCode < 300

	unified := UnifiedResponse{
		Success: isSuccess,
		Message: autoMessage(c.Request.Method, statusCode, isSuccess),
		Meta: &MetaInfo{
			RequestID:     requestID,
			Timestamp:     time.Now().Format(time.RFC3339),
			ExecutionTime: executionTime.String(),
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
		},
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(originalResponse), &parsed); err == nil {
		if isSuccess {
			// Services that already wrap in {success, data} get unwrapped
			// so the envelope is applied exactly once.
			if data, ok := parsed["data"]; ok {
				unified.Data = data
			} else {
				unified.Data = parsed
			}
		} else {
			details := originalResponse
			if errMsg, ok := parsed["error"].(string); ok {
				details = errMsg
			}
			unified.Error = &ErrorInfo{
				Code:    errorCode(statusCode),
				Details: details,
			}
		}
	} else if originalResponse != "" {
		if isSuccess {
			unified.Data = originalResponse
		} else {
			unified.Error = &ErrorInfo{
				Code:    errorCode(statusCode),
				Details: originalResponse,
			}
		}
	}

	return unified
}

func autoMessage(method string, statusCode int, isSuccess bool) string {
	if !isSuccess {
		switch statusCode {
		case 400:
			return "Invalid request"
		case 401:
			return "Authentication required"
		case 403:
			return "Permission denied"
		case 404:
			return "Resource not found"
		case 409:
			return "Conflict"
		case 429:
			return "Too many requests"
		default:
			return "Request failed"
		}
	}

	switch method {
	case "POST":
		return "Created successfully"
	case "PUT", "PATCH":
		return "Updated successfully"
	case "DELETE":
		return "Deleted successfully"
	default:
		return "Request successful"
	}
}

func errorCode(statusCode int) string {
	switch statusCode {
	case 400:
		return "BAD_REQUEST"
	case 401:
		return "UNAUTHORIZED"
	case 403:
		return "FORBIDDEN"
	case 404:
		return "NOT_FOUND"
	case 409:
		return "CONFLICT"
	case 422:
		return "VALIDATION_ERROR"
	case 429:
		return "RATE_LIMITED"
	case 503:
		return "SERVICE_UNAVAILABLE"
	default:
		return "INTERNAL_ERROR"
	}
}

// shouldSkipUnifiedResponse exempts swagger assets and websocket upgrades
// from the envelope.
func shouldSkipUnifiedResponse(c *gin.Context) bool {
	path := c.Request.URL.Path
	if strings.HasPrefix(path, "/swagger") {
		return true
	}
	if strings.HasPrefix(path, "/ws/") {
		return true
	}
	if strings.Contains(c.GetHeader("Upgrade"), "websocket") {
		return true
	}
	return false
}
