package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func batchRequest(t *testing.T, body BatchPermissionCheckRequest) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()

	payload, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/permissions/batch-check", bytes.NewReader(payload))
	c.Request.Header.Set("Content-Type", "application/json")
	return c, w
}

func individualFarmRow(farmID, ownerID uuid.UUID) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "name", "owner_id", "organization_id", "visibility"}).
		AddRow(farmID, "Test Farm", ownerID, nil, "private")
}

// Two checks on the same resource and permission against different farms
// come back under distinct keys, each with its own answer.
func TestBatchCheckFarmScopedKeys(t *testing.T) {
	mock := setupPermissionTest(t)
	actorID := uuid.New()
	ownFarmID := uuid.New()
	otherFarmID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "farms"`).
		WithArgs(ownFarmID, 1).
		WillReturnRows(individualFarmRow(ownFarmID, actorID))
	mock.ExpectQuery(`SELECT \* FROM "farms"`).
		WithArgs(otherFarmID, 1).
		WillReturnRows(individualFarmRow(otherFarmID, uuid.New()))

	c, w := batchRequest(t, BatchPermissionCheckRequest{
		UserID: actorID.String(),
		Checks: []ResourcePermissionCheck{
			{Resource: "farms", Permission: "read", FarmID: ownFarmID.String()},
			{Resource: "farms", Permission: "read", FarmID: otherFarmID.String()},
		},
	})
	BatchCheckPermissions(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response BatchPermissionCheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Results, 2)
	assert.True(t, response.Results["farms:read:"+ownFarmID.String()])
	assert.False(t, response.Results["farms:read:"+otherFarmID.String()])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchCheckUnscopedKeys(t *testing.T) {
	mock := setupPermissionTest(t)
	actorID := uuid.New()
	orgID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "organization_memberships"`).
		WithArgs(actorID, orgID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "user_id", "role", "deleted"}).
			AddRow(uuid.New(), orgID, actorID, "viewer", false))
	mock.ExpectQuery(`SELECT \* FROM "organization_memberships"`).
		WithArgs(actorID, orgID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "organization_id", "user_id", "role", "deleted"}).
			AddRow(uuid.New(), orgID, actorID, "viewer", false))

	c, w := batchRequest(t, BatchPermissionCheckRequest{
		UserID:         actorID.String(),
		OrganizationID: orgID.String(),
		Checks: []ResourcePermissionCheck{
			{Resource: "farms", Permission: "read"},
			{Resource: "farms", Permission: "update"},
		},
	})
	BatchCheckPermissions(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var response BatchPermissionCheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Results, 2)
	assert.True(t, response.Results["farms:read"])
	assert.False(t, response.Results["farms:update"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
