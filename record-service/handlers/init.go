package handlers

import (
	"net/http"

	"vinesight-backend/shared/audit"
	"vinesight-backend/shared/database"
	"vinesight-backend/shared/database/models"
	"vinesight-backend/shared/middleware"
	"vinesight-backend/shared/rbac"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	engine   *rbac.Engine
	recorder *audit.Recorder
)

// Init wires the authorization engine and the audit recorder against the
// shared database connection. Must be called after database.InitDatabase.
func Init() error {
	e, err := rbac.New(rbac.NewGormStore(database.GetDB()))
	if err != nil {
		return err
	}
	engine = e
	recorder = audit.NewRecorder(database.GetDB())
	return nil
}

func actorOnly(c *gin.Context) (uuid.UUID, bool) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return uuid.Nil, false
	}
	return actorID, true
}

// farmAuthorized fetches the farm and checks the given resource/permission
// against it, writing the error response itself on any failure. The
// organization scope comes from the farm's own tenant.
func farmAuthorized(ctx *gin.Context, actorID, farmID uuid.UUID, resource rbac.Resource, permission rbac.Permission) (*models.Farm, bool) {
	db := database.GetDB()

	var farm models.Farm
	if err := db.First(&farm, farmID).Error; err != nil {
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

	allowed, err := engine.HasPermission(ctx.Request.Context(), actorID, orgID, resource, permission, &farmID)
	if err != nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Authorization check failed", "message": err.Error()})
		return nil, false
	}
	if !allowed {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return nil, false
	}
	return &farm, true
}
