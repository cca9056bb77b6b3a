package handlers

import (
	"net/http"

	"vinesight-backend/shared/database"
	"vinesight-backend/shared/database/models"
	"vinesight-backend/shared/middleware"
	"vinesight-backend/shared/rbac"
	"vinesight-backend/shared/utils/query"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditLogListResponse represents a page of audit log entries
type AuditLogListResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Items      []models.AuditLog        `json:"items"`
		Pagination query.PaginationResponse `json:"pagination"`
	} `json:"data"`
}

// GetAuditLogs lists audit entries for one organization. Read-only: there
// is deliberately no update or delete endpoint for this resource.
// @Summary List audit log entries
// @Description Paginated audit trail for an organization, filterable by actor, action and resource type
// @Tags audit
// @Produce json
// @Security BearerAuth
// @Param org_id path string true "Organization ID"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Items per page (default: 20)"
// @Param from query string false "Start of date range (RFC3339 or YYYY-MM-DD)"
// @Param to query string false "End of date range (RFC3339 or YYYY-MM-DD)"
// @Param filters[actor_id] query string false "Filter by actor"
// @Param filters[action] query string false "Filter by action"
// @Param filters[resource_type] query string false "Filter by resource type"
// @Success 200 {object} AuditLogListResponse
// @Failure 400 {object} map[string]string "Invalid organization ID"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 500 {object} map[string]string "Server error"
// @Router /permissions/audit/{org_id} [get]
func GetAuditLogs(c *gin.Context) {
	orgID, err := uuid.Parse(c.Param("org_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid organization ID"})
		return
	}

	actorID, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	// The trail is scoped to the organization in the path, so the check
	// runs against that organization, not whatever the token was issued
	// for. A caller without settings read there sees nothing.
	allowed, err := engine.HasPermission(c.Request.Context(), actorID, orgID, rbac.ResourceSettings, rbac.PermissionRead, nil)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Authorization check failed", "message": err.Error()})
		return
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return
	}

	params := query.ParseQueryParams(c)

	allowedFilters := map[string]string{
		"actor_id":      "actor_id",
		"action":        "action",
		"resource_type": "resource_type",
	}
	allowedSortFields := map[string]string{
		"created_at":    "created_at",
		"action":        "action",
		"resource_type": "resource_type",
	}

	dbQuery := database.GetDB().Model(&models.AuditLog{}).Where("organization_id = ?", orgID)
	dbQuery = query.ApplyFilters(dbQuery, params.Filters, allowedFilters)
	dbQuery = query.ApplyDateRange(dbQuery, "created_at", params.From, params.To)
	dbQuery = query.ApplySort(dbQuery, params.Sort, allowedSortFields)

	var total int64
	if err := dbQuery.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to count audit logs",
			"message": err.Error(),
		})
		return
	}

	dbQuery = query.ApplyPagination(dbQuery, params.Page, params.Limit)

	var entries []models.AuditLog
	if err := dbQuery.Find(&entries).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve audit logs",
			"message": err.Error(),
		})
		return
	}

	response := AuditLogListResponse{Success: true}
	response.Data.Items = entries
	response.Data.Pagination = query.BuildPaginationResponse(params.Page, params.Limit, total)

	c.JSON(http.StatusOK, response)
}
