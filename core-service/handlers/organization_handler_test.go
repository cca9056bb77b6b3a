package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"vinesight-backend/shared/audit"
	"vinesight-backend/shared/database"
	"vinesight-backend/shared/rbac"
	utils "vinesight-backend/shared/utils/auth"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupHandlerTest points the package's database connection, engine and
// recorder at a mocked database and restores them afterwards.
func setupHandlerTest(t *testing.T) sqlmock.Sqlmock {
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

	prevDB, prevEngine, prevRecorder := database.DB, engine, recorder
	t.Cleanup(func() {
		database.DB, engine, recorder = prevDB, prevEngine, prevRecorder
	})

	database.DB = gormDB
	e, err := rbac.New(rbac.NewGormStore(gormDB))
	require.NoError(t, err)
	engine = e
	recorder = audit.NewRecorder(gormDB)

	return mock
}

// testRequest builds a gin context the way the auth middleware would have
// left it for an authenticated actor.
func testRequest(t *testing.T, method, target string, body interface{}, actorID uuid.UUID) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req.WithContext(utils.WithActor(req.Context(), actorID))
	c.Set("userID", actorID)
	return c, w
}

func TestCreateOrganizationWritesAudit(t *testing.T) {
	mock := setupHandlerTest(t)
	actorID := uuid.New()
	orgID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "organizations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(orgID))
	mock.ExpectQuery(`INSERT INTO "organization_memberships"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()

	c, w := testRequest(t, http.MethodPost, "/api/organizations",
		CreateOrganizationRequest{Name: "Aegean Vineyards", Type: "business"}, actorID)
	CreateOrganization(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response struct {
		Success bool                 `json:"success"`
		Data    OrganizationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.True(t, response.Success)
	assert.Equal(t, orgID, response.Data.ID)
	assert.Equal(t, "owner", response.Data.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A creation whose audit entry cannot be written is reported as a
// failure, not a success with a silent hole in the trail.
func TestCreateOrganizationFailsWhenAuditWriteFails(t *testing.T) {
	mock := setupHandlerTest(t)
	actorID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "organizations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectQuery(`INSERT INTO "organization_memberships"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnError(errors.New("audit store down"))
	mock.ExpectRollback()

	c, w := testRequest(t, http.MethodPost, "/api/organizations",
		CreateOrganizationRequest{Name: "Aegean Vineyards", Type: "business"}, actorID)
	CreateOrganization(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to record audit entry")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrganizationRequiresActor(t *testing.T) {
	mock := setupHandlerTest(t)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/organizations", nil)

	CreateOrganization(c)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
