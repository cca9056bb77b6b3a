package handlers

import (
	"net/http"
	"time"

	"vinesight-backend/shared/clients"
	"vinesight-backend/shared/database"
	"vinesight-backend/shared/database/models"
	"vinesight-backend/shared/rbac"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MemberResponse represents a membership row for API responses
type MemberResponse struct {
	ID              uuid.UUID   `json:"id"`
	UserID          uuid.UUID   `json:"user_id"`
	Email           string      `json:"email"`
	FirstName       string      `json:"first_name"`
	LastName        string      `json:"last_name"`
	Role            string      `json:"role"`
	AssignedFarmIDs []uuid.UUID `json:"assigned_farm_ids"`
	InvitedBy       *uuid.UUID  `json:"invited_by,omitempty"`
	CreatedAt       string      `json:"created_at"`
}

// InviteMemberRequest represents request body for inviting a member
type InviteMemberRequest struct {
	Email           string      `json:"email" binding:"required,email"`
	Role            string      `json:"role" binding:"required"`
	AssignedFarmIDs []uuid.UUID `json:"assigned_farm_ids"`
}

// UpdateMemberRequest represents request body for changing a member's
// role or farm assignments. A nil farm list leaves assignments untouched;
// an empty list clears them.
type UpdateMemberRequest struct {
	Role            string       `json:"role"`
	AssignedFarmIDs *[]uuid.UUID `json:"assigned_farm_ids"`
}

func memberResponse(m models.OrganizationMembership) MemberResponse {
	return MemberResponse{
		ID:              m.ID,
		UserID:          m.UserID,
		Email:           m.User.Email,
		FirstName:       m.User.FirstName,
		LastName:        m.User.LastName,
		Role:            m.Role,
		AssignedFarmIDs: m.AssignedFarmIDs,
		InvitedBy:       m.InvitedBy,
		CreatedAt:       m.CreatedAt.Format(time.RFC3339),
	}
}

// GetMembers lists the active members of an organization
// @Summary List organization members
// @Description List active members. Requires users read permission in the organization.
// @Tags members
// @Accept json
// @Produce json
// @Param id path string true "Organization ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 403 {object} map[string]string "Permission denied"
// @Router /organizations/{id}/members [get]
func GetMembers(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	orgUUID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid organization ID format", "message": err.Error()})
		return
	}

	if !authorize(ctx, actorID, orgUUID, rbac.ResourceUsers, rbac.PermissionRead, nil) {
		return
	}

	db := database.GetDB()
	var memberships []models.OrganizationMembership
	if err := db.Preload("User").
		Where("organization_id = ? AND deleted = ?", orgUUID, false).
		Order("created_at ASC").
		Find(&memberships).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve members",
			"message": err.Error(),
		})
		return
	}

	items := make([]MemberResponse, 0, len(memberships))
	for _, m := range memberships {
		items = append(items, memberResponse(m))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"items": items},
	})
}

// InviteMember adds an existing user to the organization
// @Summary Invite a member
// @Description Add a registered user to the organization with a role. Requires users create permission.
// @Tags members
// @Accept json
// @Produce json
// @Param id path string true "Organization ID" format(uuid)
// @Param invite body InviteMemberRequest true "Invitation"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{} "Created membership"
// @Failure 400 {object} map[string]string "Invalid request or unknown role"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 409 {object} map[string]string "Already a member"
// @Router /organizations/{id}/members [post]
func InviteMember(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	orgUUID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid organization ID format", "message": err.Error()})
		return
	}

	var req InviteMemberRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	role, err := rbac.ParseRole(req.Role)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role", "message": err.Error()})
		return
	}

	// A second owner cannot be invited; ownership moves by transfer, not
	// by invitation.
	if role == rbac.RoleOwner {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "An organization has exactly one owner"})
		return
	}

	if !authorize(ctx, actorID, orgUUID, rbac.ResourceUsers, rbac.PermissionCreate, nil) {
		return
	}

	db := database.GetDB()

	var user models.User
	if err := db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "No registered user with that email"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to look up user", "message": err.Error()})
		return
	}

	var existing models.OrganizationMembership
	if err := db.Where("organization_id = ? AND user_id = ? AND deleted = ?",
		orgUUID, user.ID, false).First(&existing).Error; err == nil {
		ctx.JSON(http.StatusConflict, gin.H{"error": "User is already a member"})
		return
	}

	membership := models.OrganizationMembership{
		OrganizationID:  orgUUID,
		UserID:          user.ID,
		Role:            string(role),
		AssignedFarmIDs: datatypes.NewJSONSlice(req.AssignedFarmIDs),
		InvitedBy:       &actorID,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := db.Create(&membership).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create membership", "message": err.Error()})
		return
	}

	if _, err := recorder.LogInvite(ctx.Request.Context(), orgUUID, membership.ID.String(), membership); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record audit entry", "message": err.Error()})
		return
	}

	clients.NewNotificationClient().SendNotification(clients.SendNotificationRequest{
		UserID:  user.ID,
		Type:    "membership_invite",
		Level:   "info",
		Title:   "You were added to an organization",
		Message: "You now have the " + string(role) + " role.",
	})

	membership.User = user
	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    memberResponse(membership),
	})
}

// UpdateMember changes a member's role or farm assignments
// @Summary Update a member
// @Description Change a member's role or assigned farms. Requires users update permission.
// @Tags members
// @Accept json
// @Produce json
// @Param id path string true "Organization ID" format(uuid)
// @Param member_id path string true "Membership ID" format(uuid)
// @Param member body UpdateMemberRequest true "Fields to update"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Updated membership"
// @Failure 400 {object} map[string]string "Invalid request or unknown role"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Membership not found"
// @Router /organizations/{id}/members/{member_id} [put]
func UpdateMember(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	orgUUID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid organization ID format", "message": err.Error()})
		return
	}
	memberUUID, err := uuid.Parse(ctx.Param("member_id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid membership ID format", "message": err.Error()})
		return
	}

	var req UpdateMemberRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	if !authorize(ctx, actorID, orgUUID, rbac.ResourceUsers, rbac.PermissionUpdate, nil) {
		return
	}

	db := database.GetDB()
	var membership models.OrganizationMembership
	if err := db.Preload("User").
		Where("id = ? AND organization_id = ? AND deleted = ?", memberUUID, orgUUID, false).
		First(&membership).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Membership not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve membership", "message": err.Error()})
		return
	}

	if membership.Role == string(rbac.RoleOwner) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "The owner membership cannot be modified"})
		return
	}

	oldMembership := membership

	if req.Role != "" {
		role, err := rbac.ParseRole(req.Role)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown role", "message": err.Error()})
			return
		}
		if role == rbac.RoleOwner {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "An organization has exactly one owner"})
			return
		}
		membership.Role = string(role)
	}
	if req.AssignedFarmIDs != nil {
		membership.AssignedFarmIDs = datatypes.NewJSONSlice(*req.AssignedFarmIDs)
	}
	membership.UpdatedAt = time.Now()

	if err := db.Save(&membership).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update membership", "message": err.Error()})
		return
	}

	if _, err := recorder.LogUpdate(ctx.Request.Context(), orgUUID, rbac.ResourceUsers, membership.ID.String(), oldMembership, membership); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record audit entry", "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    memberResponse(membership),
	})
}

// RemoveMember soft-deletes a membership
// @Summary Remove a member
// @Description Soft-delete a membership so the row stays attributable in audit history. Requires users delete permission.
// @Tags members
// @Accept json
// @Produce json
// @Param id path string true "Organization ID" format(uuid)
// @Param member_id path string true "Membership ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]string "Member removed"
// @Failure 400 {object} map[string]string "Invalid request or owner removal"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Membership not found"
// @Router /organizations/{id}/members/{member_id} [delete]
func RemoveMember(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	orgUUID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid organization ID format", "message": err.Error()})
		return
	}
	memberUUID, err := uuid.Parse(ctx.Param("member_id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid membership ID format", "message": err.Error()})
		return
	}

	// Removal is delete-class: only the owner holds users delete.
	if !authorize(ctx, actorID, orgUUID, rbac.ResourceUsers, rbac.PermissionDelete, nil) {
		return
	}

	db := database.GetDB()
	var membership models.OrganizationMembership
	if err := db.Where("id = ? AND organization_id = ? AND deleted = ?", memberUUID, orgUUID, false).
		First(&membership).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Membership not found"})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve membership", "message": err.Error()})
		return
	}

	if membership.Role == string(rbac.RoleOwner) {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "The owner cannot be removed"})
		return
	}

	// Audit first. If the entry cannot be written the member stays.
	if _, err := recorder.LogRemove(ctx.Request.Context(), orgUUID, membership.ID.String(), membership); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record audit entry", "message": err.Error()})
		return
	}

	membership.Deleted = true
	membership.UpdatedAt = time.Now()
	if err := db.Save(&membership).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove member", "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Member removed"})
}
