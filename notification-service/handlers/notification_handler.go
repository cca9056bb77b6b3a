package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"vinesight-backend/notification-service/services"
	"vinesight-backend/shared/database"
	"vinesight-backend/shared/database/models/notification"
	"vinesight-backend/shared/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// SendNotificationRequest is the payload other services post to deliver
// a notification. The entry is persisted first, then pushed over the
// user's WebSocket if they are connected.
type SendNotificationRequest struct {
	UserID   uuid.UUID              `json:"user_id" binding:"required"`
	Type     string                 `json:"type" binding:"required"`
	Level    string                 `json:"level"`
	Title    string                 `json:"title" binding:"required"`
	Message  string                 `json:"message" binding:"required"`
	Entity   string                 `json:"entity,omitempty"`
	EntityID *uuid.UUID             `json:"entity_id,omitempty"`
	Data     map[string]interface{} `json:"data,omitempty"`
}

// SendNotification persists and delivers a notification
// @Summary Send notification
// @Description Persist a notification and push it to the user over WebSocket when connected
// @Tags notifications
// @Accept json
// @Produce json
// @Param notification body SendNotificationRequest true "Notification payload"
// @Success 201 {object} notification.Notification
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 500 {object} map[string]string "Failed to store notification"
// @Router /notifications/send [post]
func SendNotification(c *gin.Context) {
	var req SendNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	level := notification.NotificationLevel(req.Level)
	if level == "" {
		level = notification.NotificationLevelInfo
	}

	var data datatypes.JSON
	if req.Data != nil {
		raw, err := json.Marshal(req.Data)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid data payload"})
			return
		}
		data = datatypes.JSON(raw)
	}

	notif := notification.Notification{
		UserID:   &req.UserID,
		Type:     req.Type,
		Level:    level,
		Title:    req.Title,
		Message:  req.Message,
		Entity:   req.Entity,
		EntityID: req.EntityID,
		Data:     data,
	}

	db := database.GetDB()
	if err := db.Create(&notif).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store notification"})
		return
	}

	// Live push is best-effort: an offline user reads it from the list later.
	wsMessage := &notification.WebSocketMessage{
		Type:      req.Type,
		Level:     level,
		Title:     req.Title,
		Message:   req.Message,
		Timestamp: time.Now(),
		Entity:    req.Entity,
		EntityID:  req.EntityID,
		UserID:    &req.UserID,
		Data:      req.Data,
	}
	services.GetWebSocketManager().SendToUser(req.UserID.String(), wsMessage)

	c.JSON(http.StatusCreated, notif)
}

// GetNotifications lists the caller's notifications
// @Summary Get my notifications
// @Description Get the authenticated user's notifications, newest first
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread notifications"
// @Success 200 {array} notification.Notification
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /notifications [get]
func GetNotifications(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	db := database.GetDB()
	query := db.Where("user_id = ?", actorID).Order("created_at DESC").Limit(100)
	if c.Query("unread") == "true" {
		query = query.Where("is_read = ?", false)
	}

	var notifications []notification.Notification
	if err := query.Find(&notifications).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch notifications"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkAsRead marks one notification as read
// @Summary Mark notification as read
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID" format(uuid)
// @Success 200 {object} notification.Notification
// @Failure 400 {object} map[string]string "Invalid notification ID"
// @Failure 404 {object} map[string]string "Notification not found"
// @Router /notifications/{id}/read [put]
func MarkAsRead(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	notifID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	db := database.GetDB()
	var notif notification.Notification
	if err := db.Where("id = ? AND user_id = ?", notifID, actorID).First(&notif).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	now := time.Now()
	notif.IsRead = true
	notif.ReadAt = &now
	if err := db.Save(&notif).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}

	c.JSON(http.StatusOK, notif)
}

// MarkAllAsRead marks every unread notification of the caller as read
// @Summary Mark all notifications as read
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Number of notifications updated"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /notifications/read-all [put]
func MarkAllAsRead(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	db := database.GetDB()
	result := db.Model(&notification.Notification{}).
		Where("user_id = ? AND is_read = ?", actorID, false).
		Updates(map[string]interface{}{"is_read": true, "read_at": time.Now()})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"updated": result.RowsAffected})
}

// DeleteNotification deletes one of the caller's notifications
// @Summary Delete notification
// @Tags notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Notification ID" format(uuid)
// @Success 204
// @Failure 400 {object} map[string]string "Invalid notification ID"
// @Failure 404 {object} map[string]string "Notification not found"
// @Router /notifications/{id} [delete]
func DeleteNotification(c *gin.Context) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	notifID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid notification ID"})
		return
	}

	db := database.GetDB()
	result := db.Where("id = ? AND user_id = ?", notifID, actorID).Delete(&notification.Notification{})
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notification"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}

	c.Status(http.StatusNoContent)
}
