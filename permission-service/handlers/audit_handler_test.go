package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"vinesight-backend/shared/database"
	"vinesight-backend/shared/rbac"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupPermissionTest backs the package's engine and database connection
// with a mocked database and restores both afterwards.
func setupPermissionTest(t *testing.T) sqlmock.Sqlmock {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	prevDB, prevEngine := database.DB, engine
	t.Cleanup(func() {
		database.DB, engine = prevDB, prevEngine
	})

	database.DB = gormDB
	e, err := rbac.New(rbac.NewGormStore(gormDB))
	require.NoError(t, err)
	engine = e

	return mock
}

func auditTrailRequest(t *testing.T, orgID uuid.UUID) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/permissions/audit/"+orgID.String(), nil)
	c.Params = gin.Params{{Key: "org_id", Value: orgID.String()}}
	return c, w
}

func TestGetAuditLogsRequiresAuthentication(t *testing.T) {
	mock := setupPermissionTest(t)

	c, w := auditTrailRequest(t, uuid.New())
	GetAuditLogs(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The membership check runs against the organization named in the path.
// An authenticated user with no membership there gets nothing back, not
// even an empty page.
func TestGetAuditLogsCrossTenantDenied(t *testing.T) {
	mock := setupPermissionTest(t)
	actorID := uuid.New()
	victimOrgID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "organization_memberships"`).
		WithArgs(actorID, victimOrgID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "user_id", "role", "deleted"}))

	c, w := auditTrailRequest(t, victimOrgID)
	c.Set("userID", actorID)
	GetAuditLogs(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

// Membership alone is not enough: the trail needs settings read, which a
// field worker does not hold.
func TestGetAuditLogsDeniedWithoutSettingsRead(t *testing.T) {
	mock := setupPermissionTest(t)
	actorID := uuid.New()
	orgID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "organization_memberships"`).
		WithArgs(actorID, orgID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "user_id", "role", "deleted"}).
			AddRow(uuid.New(), orgID, actorID, "field_worker", false))

	c, w := auditTrailRequest(t, orgID)
	c.Set("userID", actorID)
	GetAuditLogs(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetAuditLogsForAdmin(t *testing.T) {
	mock := setupPermissionTest(t)
	actorID := uuid.New()
	orgID := uuid.New()
	entryID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "organization_memberships"`).
		WithArgs(actorID, orgID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "user_id", "role", "deleted"}).
			AddRow(uuid.New(), orgID, actorID, "admin", false))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "audit_logs"`).
		WithArgs(orgID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(`SELECT \* FROM "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "actor_id", "action", "resource_type", "resource_id", "created_at"}).
			AddRow(entryID, orgID, actorID, "update", "settings", orgID.String(), time.Now()))

	c, w := auditTrailRequest(t, orgID)
	c.Set("userID", actorID)
	GetAuditLogs(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response AuditLogListResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	require.Len(t, response.Data.Items, 1)
	assert.Equal(t, entryID, response.Data.Items[0].ID)
	assert.Equal(t, int64(1), response.Data.Pagination.Total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
