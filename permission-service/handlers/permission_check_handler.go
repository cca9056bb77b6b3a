package handlers

import (
	"log"
	"net/http"

	"vinesight-backend/shared/database"
	"vinesight-backend/shared/rbac"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

var engine *rbac.Engine

// InitEngine builds the authorization engine over the shared database.
// The permission matrix is validated here; a hole in the table stops the
// service from starting at all.
func InitEngine() error {
	e, err := rbac.New(rbac.NewGormStore(database.GetDB()))
	if err != nil {
		return err
	}
	engine = e
	return nil
}

// PermissionCheckRequest represents a single permission check request
type PermissionCheckRequest struct {
	UserID         string `json:"user_id" binding:"required"`
	OrganizationID string `json:"organization_id"`
	Resource       string `json:"resource" binding:"required"`
	Permission     string `json:"permission" binding:"required"`
	FarmID         string `json:"farm_id"`
}

// PermissionCheckResponse represents the response from permission check
type PermissionCheckResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// BatchPermissionCheckRequest represents batch permission check request
type BatchPermissionCheckRequest struct {
	UserID         string                    `json:"user_id" binding:"required"`
	OrganizationID string                    `json:"organization_id"`
	Checks         []ResourcePermissionCheck `json:"checks" binding:"required,min=1"`
}

type ResourcePermissionCheck struct {
	Resource   string `json:"resource" binding:"required"`
	Permission string `json:"permission" binding:"required"`
	FarmID     string `json:"farm_id"`
}

// BatchPermissionCheckResponse represents batch permission check response
type BatchPermissionCheckResponse struct {
	Results map[string]bool `json:"results"`
}

// CheckPermission decides one (actor, resource, permission, farm) request
// @Summary Check single permission
// @Description Decide whether a user may perform a permission on a resource, optionally scoped to a farm
// @Tags permission-checks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param check body PermissionCheckRequest true "Permission check request"
// @Success 200 {object} PermissionCheckResponse "Permission check result"
// @Failure 400 {object} map[string]interface{} "Invalid request format"
// @Failure 503 {object} map[string]interface{} "Backing store unavailable"
// @Router /permissions/check [post]
func CheckPermission(c *gin.Context) {
	var req PermissionCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	allowed, reason, err := decide(c, req)
	if err != nil {
		// A lookup failure is not a denial: surface it so the caller can
		// fail closed and still tell the two apart in its logs.
		log.Printf("❌ Permission check failed: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "Permission check could not be completed",
		})
		return
	}

	c.JSON(http.StatusOK, PermissionCheckResponse{
		Allowed: allowed,
		Reason:  reason,
	})
}

// BatchCheckPermissions decides multiple permissions in one request
// @Summary Check multiple permissions
// @Description Decide multiple resource-permission pairs for a user in a single request
// @Tags permission-checks
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param batch body BatchPermissionCheckRequest true "Batch permission check request"
// @Success 200 {object} BatchPermissionCheckResponse "Batch permission check results"
// @Failure 400 {object} map[string]interface{} "Invalid request format"
// @Failure 503 {object} map[string]interface{} "Backing store unavailable"
// @Router /permissions/batch-check [post]
func BatchCheckPermissions(c *gin.Context) {
	var req BatchPermissionCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
		return
	}

	results := make(map[string]bool)
	for _, check := range req.Checks {
		// Farm-scoped checks carry the farm in the key so two checks on
		// the same pair against different farms do not collide.
		key := check.Resource + ":" + check.Permission
		if check.FarmID != "" {
			key += ":" + check.FarmID
		}
		allowed, _, err := decide(c, PermissionCheckRequest{
			UserID:         req.UserID,
			OrganizationID: req.OrganizationID,
			Resource:       check.Resource,
			Permission:     check.Permission,
			FarmID:         check.FarmID,
		})
		if err != nil {
			log.Printf("❌ Permission check failed: %v", err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error": "Permission check could not be completed",
			})
			return
		}
		results[key] = allowed
	}

	c.JSON(http.StatusOK, BatchPermissionCheckResponse{Results: results})
}

// decide translates the wire request into an engine call. Malformed
// identifiers deny rather than error: an unparseable UUID can never name
// an authorized actor.
func decide(c *gin.Context, req PermissionCheckRequest) (bool, string, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return false, "invalid_user_id", nil
	}

	var orgID uuid.UUID
	if req.OrganizationID != "" {
		orgID, err = uuid.Parse(req.OrganizationID)
		if err != nil {
			return false, "invalid_organization_id", nil
		}
	}

	resource, err := rbac.ParseResource(req.Resource)
	if err != nil {
		return false, "unknown_resource", nil
	}
	permission, err := rbac.ParsePermission(req.Permission)
	if err != nil {
		return false, "unknown_permission", nil
	}

	var farmID *uuid.UUID
	if req.FarmID != "" {
		id, err := uuid.Parse(req.FarmID)
		if err != nil {
			return false, "invalid_farm_id", nil
		}
		farmID = &id
	}

	allowed, err := engine.HasPermission(c.Request.Context(), userID, orgID, resource, permission, farmID)
	if err != nil {
		return false, "", err
	}
	if allowed {
		return true, "granted", nil
	}
	return false, "denied", nil
}
