package handlers

import (
	"net/http"

	"vinesight-backend/record-service/services"
	"vinesight-backend/shared/clients"
	"vinesight-backend/shared/database"
	"vinesight-backend/shared/rbac"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// GenerateRecommendations runs the advisor rules for a farm
// @Summary Generate advisor tasks
// @Description Evaluate the recommendation rules against a farm's record history and open advisor tasks. Requires AI features create permission on the farm.
// @Tags recommendations
// @Accept json
// @Produce json
// @Param id path string true "Farm ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Newly created advisor tasks"
// @Failure 400 {object} map[string]string "Invalid farm ID format"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Farm not found"
// @Router /farms/{id}/recommendations [post]
func GenerateRecommendations(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	farmUUID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid farm ID format", "message": err.Error()})
		return
	}

	farm, ok := farmAuthorized(ctx, actorID, farmUUID, rbac.ResourceAIFeatures, rbac.PermissionCreate)
	if !ok {
		return
	}

	svc := services.NewRecommendationService(database.GetDB())
	tasks, err := svc.GenerateForFarm(ctx.Request.Context(), farm, actorID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate recommendations", "message": err.Error()})
		return
	}

	if farm.OrganizationID != nil && len(tasks) > 0 {
		if _, err := recorder.LogCreate(ctx.Request.Context(), *farm.OrganizationID, rbac.ResourceAIFeatures, farm.ID.String(), tasks); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record audit entry", "message": err.Error()})
			return
		}
	}

	if len(tasks) > 0 {
		clients.NewNotificationClient().SendNotification(clients.SendNotificationRequest{
			UserID:   actorID,
			Type:     "advisor_tasks",
			Level:    "info",
			Title:    "New advisor tasks",
			Message:  "The advisor opened new tasks for " + farm.Name + ".",
			Entity:   "farm",
			EntityID: &farm.ID,
		})
	}

	items := make([]TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		items = append(items, taskResponse(t))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"items": items},
	})
}
