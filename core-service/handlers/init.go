package handlers

import (
	"net/http"

	"vinesight-backend/shared/audit"
	"vinesight-backend/shared/database"
	"vinesight-backend/shared/middleware"
	"vinesight-backend/shared/rbac"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
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

// actorOnly pulls the authenticated actor out of the gin context for
// endpoints that work without an organization scope.
func actorOnly(c *gin.Context) (uuid.UUID, bool) {
	actorID, ok := middleware.ActorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return uuid.Nil, false
	}
	return actorID, true
}

// authorize runs a permission check and writes the response on failure.
// Returns true only when the actor is allowed to proceed.
func authorize(c *gin.Context, actorID, orgID uuid.UUID, resource rbac.Resource, permission rbac.Permission, farmID *uuid.UUID) bool {
	allowed, err := engine.HasPermission(c.Request.Context(), actorID, orgID, resource, permission, farmID)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Authorization check failed", "message": err.Error()})
		return false
	}
	if !allowed {
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
		return false
	}
	return true
}
