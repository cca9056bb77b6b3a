package clients

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"vinesight-backend/shared/config"

	"github.com/google/uuid"
)

// NotificationClient handles communication with notification service
type NotificationClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewNotificationClient creates a new notification client
func NewNotificationClient() *NotificationClient {
	cfg := config.GetConfig()
	return &NotificationClient{
		baseURL: cfg.NotificationServiceURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendNotificationRequest is the payload for pushing a notification
type SendNotificationRequest struct {
	UserID   uuid.UUID              `json:"user_id"`
	Type     string                 `json:"type"`
	Level    string                 `json:"level"`
	Title    string                 `json:"title"`
	Message  string                 `json:"message"`
	Entity   string                 `json:"entity,omitempty"`
	EntityID *uuid.UUID             `json:"entity_id,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// SendNotification stores and pushes a notification for a user. Failures
// are logged, not returned: notifications are best-effort, unlike audit
// entries.
func (nc *NotificationClient) SendNotification(req SendNotificationRequest) {
	jsonData, err := json.Marshal(req)
	if err != nil {
		log.Printf("⚠️  Failed to marshal notification: %v", err)
		return
	}

	resp, err := nc.httpClient.Post(
		fmt.Sprintf("%s/api/notifications/send", nc.baseURL),
		"application/json",
		bytes.NewBuffer(jsonData),
	)
	if err != nil {
		log.Printf("⚠️  Failed to send notification: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		log.Printf("⚠️  Notification service returned status: %d", resp.StatusCode)
	}
}
