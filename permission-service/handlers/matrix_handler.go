package handlers

import (
	"net/http"

	"vinesight-backend/shared/rbac"

	"github.com/gin-gonic/gin"
)

// RoleMatrixResponse is one role's full grant set
type RoleMatrixResponse struct {
	Role        rbac.Role                                       `json:"role"`
	Permissions map[rbac.Resource]map[rbac.Permission]bool `json:"permissions"`
}

// GetPermissionMatrix dumps the compiled-in role permission table
// @Summary Get the role permission matrix
// @Description Read-only dump of the compiled-in permission table, for building UI guards
// @Tags permissions
// @Produce json
// @Security BearerAuth
// @Success 200 {array} RoleMatrixResponse
// @Router /permissions/matrix [get]
func GetPermissionMatrix(c *gin.Context) {
	out := make([]RoleMatrixResponse, 0, len(rbac.AllRoles))
	for _, role := range rbac.AllRoles {
		out = append(out, RoleMatrixResponse{
			Role:        role,
			Permissions: rbac.RolePermissions(role),
		})
	}
	c.JSON(http.StatusOK, out)
}

// GetRolePermissions returns the grants for one role
// @Summary Get one role's permissions
// @Tags permissions
// @Produce json
// @Security BearerAuth
// @Param role path string true "Role name"
// @Success 200 {object} RoleMatrixResponse
// @Failure 404 {object} map[string]string "Unknown role"
// @Router /permissions/matrix/{role} [get]
func GetRolePermissions(c *gin.Context) {
	role, err := rbac.ParseRole(c.Param("role"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown role"})
		return
	}
	c.JSON(http.StatusOK, RoleMatrixResponse{
		Role:        role,
		Permissions: rbac.RolePermissions(role),
	})
}
