package handlers

import (
	"net/http"
	"time"

	"vinesight-backend/shared/database"
	"vinesight-backend/shared/database/models"
	"vinesight-backend/shared/middleware"
	"vinesight-backend/shared/rbac"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FarmResponse represents farm data for API responses
type FarmResponse struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	OwnerID        uuid.UUID   `json:"owner_id"`
	OrganizationID *uuid.UUID  `json:"organization_id,omitempty"`
	Visibility     string      `json:"visibility"`
	FarmManagerIDs []uuid.UUID `json:"farm_manager_ids"`
	Region         string      `json:"region"`
	AreaHectares   float64     `json:"area_hectares"`
	GrapeVariety   string      `json:"grape_variety"`
	CreatedAt      string      `json:"created_at"`
	UpdatedAt      string      `json:"updated_at"`
}

// CreateFarmRequest represents request body for creating a farm
type CreateFarmRequest struct {
	Name string `json:"name" binding:"required"`
	// When true the farm belongs to the caller's organization; when false
	// it is an individually-owned farm outside any organization.
	InOrganization bool    `json:"in_organization"`
	Visibility     string  `json:"visibility" binding:"omitempty,oneof=private org_wide"`
	Region         string  `json:"region"`
	AreaHectares   float64 `json:"area_hectares"`
	GrapeVariety   string  `json:"grape_variety"`
}

// UpdateFarmRequest represents request body for updating a farm
type UpdateFarmRequest struct {
	Name           string       `json:"name"`
	Visibility     string       `json:"visibility" binding:"omitempty,oneof=private org_wide"`
	FarmManagerIDs *[]uuid.UUID `json:"farm_manager_ids"`
	Region         string       `json:"region"`
	AreaHectares   *float64     `json:"area_hectares"`
	GrapeVariety   string       `json:"grape_variety"`
}

func farmResponse(f models.Farm) FarmResponse {
	return FarmResponse{
		ID:             f.ID,
		Name:           f.Name,
		OwnerID:        f.OwnerID,
		OrganizationID: f.OrganizationID,
		Visibility:     f.Visibility,
		FarmManagerIDs: f.FarmManagerIDs,
		Region:         f.Region,
		AreaHectares:   f.AreaHectares,
		GrapeVariety:   f.GrapeVariety,
		CreatedAt:      f.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      f.UpdatedAt.Format(time.RFC3339),
	}
}

// GetFarms lists the farms the caller can access
// @Summary List accessible farms
// @Description List individually-owned farms plus the organization farms visible to the caller's role and assignments
// @Tags farms
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /farms [get]
func GetFarms(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	db := database.GetDB()

	// Individually-owned farms are always visible to their owner.
	var farms []models.Farm
	if err := db.Where("owner_id = ? AND organization_id IS NULL", actorID).
		Find(&farms).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve farms", "message": err.Error()})
		return
	}

	// Organization farms are filtered through the same evaluator the
	// permission checks use, so the list never shows a farm the caller
	// could not actually open.
	if orgID, hasOrg := middleware.OrganizationID(ctx); hasOrg {
		membership, err := engine.ResolveMembership(ctx.Request.Context(), actorID, orgID)
		if err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Authorization check failed", "message": err.Error()})
			return
		}
		if membership != nil {
			var orgFarms []models.Farm
			if err := db.Where("organization_id = ?", orgID).Find(&orgFarms).Error; err != nil {
				ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve farms", "message": err.Error()})
				return
			}
			for i := range orgFarms {
				if rbac.CanAccessFarm(membership, &orgFarms[i]) {
					farms = append(farms, orgFarms[i])
				}
			}
		}
	}

	items := make([]FarmResponse, 0, len(farms))
	for _, f := range farms {
		items = append(items, farmResponse(f))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    gin.H{"items": items},
	})
}

// GetFarm retrieves a single farm by ID
// @Summary Get farm by ID
// @Description Get a farm the caller has read access to
// @Tags farms
// @Accept json
// @Produce json
// @Param id path string true "Farm ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Invalid farm ID format"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Farm not found"
// @Router /farms/{id} [get]
func GetFarm(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	farmUUID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid farm ID format", "message": err.Error()})
		return
	}

	farm, ok := loadFarmAuthorized(ctx, actorID, farmUUID, rbac.PermissionRead)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    farmResponse(*farm),
	})
}

// CreateFarm creates a new farm
// @Summary Create a farm
// @Description Create an individually-owned farm, or an organization farm when in_organization is set. Organization farms require farms create permission.
// @Tags farms
// @Accept json
// @Produce json
// @Param farm body CreateFarmRequest true "Farm information"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{} "Created farm"
// @Failure 400 {object} map[string]string "Invalid request data"
// @Failure 403 {object} map[string]string "Permission denied"
// @Router /farms [post]
func CreateFarm(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	var req CreateFarmRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	visibility := req.Visibility
	if visibility == "" {
		visibility = models.FarmVisibilityPrivate
	}

	farm := models.Farm{
		Name:         req.Name,
		OwnerID:      actorID,
		Visibility:   visibility,
		Region:       req.Region,
		AreaHectares: req.AreaHectares,
		GrapeVariety: req.GrapeVariety,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}

	var orgForAudit *uuid.UUID
	if req.InOrganization {
		orgID, hasOrg := middleware.OrganizationID(ctx)
		if !hasOrg {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "No organization selected"})
			return
		}
		if !authorize(ctx, actorID, orgID, rbac.ResourceFarms, rbac.PermissionCreate, nil) {
			return
		}
		farm.OrganizationID = &orgID
		orgForAudit = &orgID
	}

	db := database.GetDB()
	if err := db.Create(&farm).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create farm", "message": err.Error()})
		return
	}

	// Individually-owned farms have no organization tenant, so no audit
	// trail: the audit log is an organization-scoped record.
	if orgForAudit != nil {
		if _, err := recorder.LogCreate(ctx.Request.Context(), *orgForAudit, rbac.ResourceFarms, farm.ID.String(), farm); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record audit entry", "message": err.Error()})
			return
		}
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"data":    farmResponse(farm),
	})
}

// UpdateFarm updates a farm
// @Summary Update farm
// @Description Update a farm the caller has update permission on
// @Tags farms
// @Accept json
// @Produce json
// @Param id path string true "Farm ID" format(uuid)
// @Param farm body UpdateFarmRequest true "Fields to update"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Updated farm"
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Farm not found"
// @Router /farms/{id} [put]
func UpdateFarm(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	farmUUID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid farm ID format", "message": err.Error()})
		return
	}

	var req UpdateFarmRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	farm, ok := loadFarmAuthorized(ctx, actorID, farmUUID, rbac.PermissionUpdate)
	if !ok {
		return
	}

	oldFarm := *farm

	if req.Name != "" {
		farm.Name = req.Name
	}
	if req.Visibility != "" {
		farm.Visibility = req.Visibility
	}
	if req.FarmManagerIDs != nil {
		farm.FarmManagerIDs = datatypes.NewJSONSlice(*req.FarmManagerIDs)
	}
	if req.Region != "" {
		farm.Region = req.Region
	}
	if req.AreaHectares != nil {
		farm.AreaHectares = *req.AreaHectares
	}
	if req.GrapeVariety != "" {
		farm.GrapeVariety = req.GrapeVariety
	}
	farm.UpdatedAt = time.Now()

	db := database.GetDB()
	if err := db.Save(farm).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update farm", "message": err.Error()})
		return
	}

	if farm.OrganizationID != nil {
		if _, err := recorder.LogUpdate(ctx.Request.Context(), *farm.OrganizationID, rbac.ResourceFarms, farm.ID.String(), oldFarm, farm); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record audit entry", "message": err.Error()})
			return
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    farmResponse(*farm),
	})
}

// DeleteFarm deletes a farm
// @Summary Delete farm
// @Description Delete a farm the caller has delete permission on
// @Tags farms
// @Accept json
// @Produce json
// @Param id path string true "Farm ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]string "Farm deleted"
// @Failure 400 {object} map[string]string "Invalid farm ID format"
// @Failure 403 {object} map[string]string "Permission denied"
// @Failure 404 {object} map[string]string "Farm not found"
// @Router /farms/{id} [delete]
func DeleteFarm(ctx *gin.Context) {
	actorID, ok := actorOnly(ctx)
	if !ok {
		return
	}

	farmUUID, err := uuid.Parse(ctx.Param("id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid farm ID format", "message": err.Error()})
		return
	}

	farm, ok := loadFarmAuthorized(ctx, actorID, farmUUID, rbac.PermissionDelete)
	if !ok {
		return
	}

	if farm.OrganizationID != nil {
		if _, err := recorder.LogDelete(ctx.Request.Context(), *farm.OrganizationID, rbac.ResourceFarms, farm.ID.String(), farm); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record audit entry", "message": err.Error()})
			return
		}
	}

	db := database.GetDB()
	err = db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("farm_id = ?", farmUUID).Delete(&models.FarmRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("farm_id = ?", farmUUID).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Farm{}, farmUUID).Error
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete farm", "message": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"success": true, "message": "Farm deleted"})
}

// loadFarmAuthorized fetches the farm and runs the permission check for
// it, writing the error response itself on any failure. The organization
// scope for the check comes from the farm's own tenant, so a token scoped
// to another organization cannot sidestep tenant isolation.
func loadFarmAuthorized(ctx *gin.Context, actorID, farmUUID uuid.UUID, permission rbac.Permission) (*models.Farm, bool) {
	db := database.GetDB()

	var farm models.Farm
	if err := db.First(&farm, farmUUID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			ctx.JSON(http.StatusNotFound, gin.H{"error": "Farm not found"})
			return nil, false
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve farm", "message": err.Error()})
		return nil, false
	}

	var orgID uuid.UUID
	if farm.OrganizationID != nil {
		orgID = *farm.OrganizationID
	}

	if !authorize(ctx, actorID, orgID, rbac.ResourceFarms, permission, &farmUUID) {
		return nil, false
	}
	return &farm, true
}
