package handlers

import (
	"net/http"
	"time"

	"vinesight-backend/shared/database"
	"vinesight-backend/shared/database/models"
	"vinesight-backend/shared/rbac"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrganizationResponse represents organization data for API responses
type OrganizationResponse struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Type             string    `json:"type"`
	SubscriptionTier string    `json:"subscription_tier"`
	Status           string    `json:"status"`
	CreatedBy        uuid.UUID `json:"created_by"`
	Role             string    `json:"role,omitempty"`
	CreatedAt        string    `json:"created_at"`
	UpdatedAt        string    `json:"updated_at"`
}

// CreateOrganizationRequest represents request body for creating organization
type CreateOrganizationRequest struct {
	Name string `json:"name" binding:"required"`
	Type string `json:"type" binding:"required,oneof=individual business enterprise"`
}

// UpdateOrganizationRequest represents request body for updating organization
type UpdateOrganizationRequest struct {
	Name             string `json:"name"`
	SubscriptionTier string `json:"subscription_tier"`
	Status           string `json:"status"`
}

func orgResponse(org models.Organization, role string) OrganizationResponse {
	return OrganizationResponse{
		ID:               org.ID,
		Name:             org.Name,
		Type:             org.Type,
		SubscriptionTier: org.SubscriptionTier,
		Status:           org.Status,
		CreatedBy:        org.CreatedBy,
		Role:             role,
		CreatedAt:        org.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        org.UpdatedAt.Format(time.RFC3339),
	}
}

// GetOrganizations lists the organizations the caller belongs to
// @Summary List my organizations
// @Description List all organizations the authenticated user is an active member of
// @Tags organizations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /organizations [get]
func GetOrganizations(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	db := database.GetDB()

	var memberships []models.OrganizationMembership
	if err := db.Preload("Organization").
		Where("user_id = ? AND deleted = ?", actorID, false).
		Order("created_at ASC").
		Find(&memberships).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve organizations",
			"message": err.Error(),
		})
		return
	}

	items := make([]OrganizationResponse, 0, len(memberships))
	for _, m := range memberships {
		items = append(items, orgResponse(m.Organization, m.Role))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"items": items},
	})
}

// GetOrganization retrieves a single organization by ID
// @Summary Get organization by ID
// @Description Get detailed information about an organization the caller belongs to
// @Tags organizations
// @Accept json
// @Produce json
// @Param id path string true "Organization ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid organization ID format"
// @Failure 403 {object} map[string]string "Not a member"
// @Failure 404 {object} map[string]string "Organization not found"
// @Router /organizations/{id} [get]
func GetOrganization(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	orgUUID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid organization ID format",
			"message": err.Error(),
		})
		return
	}

	// Any active member may view the organization card. The matrix gates
	// settings changes, not basic visibility of your own organization.
	membership, err := engine.ResolveMembership(ctx.Request.Context(), actorID, orgUUID)
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Authorization check failed", "message": err.Error()})
		return
	}
	if membership == nil {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Not a member of the organization"})
		return
	}

	db := database.GetDB()
	var org models.Organization
	if err := db.First(&org, orgUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{
				"error":   "Organization not found",
				"message": "Organization with the given ID does not exist",
			})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve organization",
			"message": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orgResponse(org, string(membership.Role)),
	})
}

// CreateOrganization creates a new organization
// @Summary Create a new organization
// @Description Create an organization. The creator becomes its owner in the same transaction.
// @Tags organizations
// @Accept json
// @Produce json
// @Param organization body CreateOrganizationRequest true "Organization information"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{} "Created organization"
// @Failure 400 {object} map[string]string "Invalid request data"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /organizations [post]
func CreateOrganization(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	var req CreateOrganizationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	db := database.GetDB()

	org := models.Organization{
		Name:      req.Name,
		Type:      req.Type,
		Status:    "ACTIVE",
		CreatedBy: actorID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	// The organization and its owner membership commit together. An
	// organization without an owner is unreachable by everyone.
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&org).Error; err != nil {
			return err
		}
		membership := models.OrganizationMembership{
			OrganizationID: org.ID,
			UserID:         actorID,
			Role:           string(rbac.RoleOwner),
			CreatedAt:      time.Now(),
			UpdatedAt:      time.Now(),
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create organization",
			"message": err.Error(),
		})
		return
	}

	if _, err := recorder.LogCreate(ctx.Request.Context(), org.ID, rbac.ResourceSettings, org.ID.String(), org); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to record audit entry",
			"message": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    orgResponse(org, string(rbac.RoleOwner)),
	})
}

// UpdateOrganization updates organization settings
// @Summary Update organization
// @Description Update organization settings. Requires settings update permission.
// @Tags organizations
// @Accept json
// @Produce json
// @Param id path string true "Organization ID" format(uuid)
// @Param organization body UpdateOrganizationRequest true "Fields to update"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Updated organization"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Organization not found"
// @Router /organizations/{id} [put]
func UpdateOrganization(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	orgUUID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid organization ID format",
			"message": err.Error(),
		})
		return
	}

	var req UpdateOrganizationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"message": err.Error(),
		})
		return
	}

	if !authorize(ctx, actorID, orgUUID, rbac.ResourceSettings, rbac.PermissionUpdate, nil) {
		return
	}

	db := database.GetDB()
	var org models.Organization
	if err := db.First(&org, orgUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve organization",
			"message": err.Error(),
		})
		return
	}

	oldOrg := org

	if req.Name != "" {
		org.Name = req.Name
	}
	if req.SubscriptionTier != "" {
		org.SubscriptionTier = req.SubscriptionTier
	}
	if req.Status != "" {
		org.Status = req.Status
	}
	org.UpdatedAt = time.Now()

	if err := db.Save(&org).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to update organization",
			"message": err.Error(),
		})
		return
	}

	if _, err := recorder.LogUpdate(ctx.Request.Context(), org.ID, rbac.ResourceSettings, org.ID.String(), oldOrg, org); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to record audit entry",
			"message": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    orgResponse(org, ""),
	})
}

// DeleteOrganization deletes an empty organization
// @Summary Delete organization
// @Description Delete an organization. Only the owner may do this, and only after every other member has been removed.
// @Tags organizations
// @Accept json
// @Produce json
// @Param id path string true "Organization ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]string "Organization deleted"
// @Failure 400 {object} map[string]string "Invalid organization ID"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 409 {object} map[string]string "Organization still has members"
// @Router /organizations/{id} [delete]
func DeleteOrganization(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	orgUUID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid organization ID format",
			"message": err.Error(),
		})
		return
	}

	membership, err := engine.ResolveMembership(ctx.Request.Context(), actorID, orgUUID)
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Authorization check failed", "message": err.Error()})
		return
	}
	if membership == nil || membership.Role != rbac.RoleOwner {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Only the owner can delete an organization"})
		return
	}

	db := database.GetDB()

	// An organization is never removed while anyone besides the owner is
	// still in it.
	var otherMembers int64
	if err := db.Model(&models.OrganizationMembership{}).
		Where("organization_id = ? AND user_id <> ? AND deleted = ?", orgUUID, actorID, false).
		Count(&otherMembers).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to check memberships",
			"message": err.Error(),
		})
		return
	}
	if otherMembers > 0 {
		ctx.JSON(http.StatusConflict, gin.H{"error": "Remove all other members before deleting the organization"})
		return
	}

	var org models.Organization
	if err := db.First(&org, orgUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Organization not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve organization",
			"message": err.Error(),
		})
		return
	}

	// Audit before the delete: the entry needs the organization row to be
	// attributable, and a failed write must block the destructive step.
	if _, err := recorder.LogDelete(ctx.Request.Context(), org.ID, rbac.ResourceSettings, org.ID.String(), org); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to record audit entry",
			"message": err.Error(),
		})
		return
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.OrganizationMembership{}).
			Where("organization_id = ?", orgUUID).
			Update("deleted", true).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Organization{}, orgUUID).Error
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to delete organization",
			"message": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Organization deleted"})
}
