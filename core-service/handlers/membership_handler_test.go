package handlers

import (
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func membershipRow(id, orgID, userID uuid.UUID, role string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "organization_id", "user_id", "role", "deleted"}).
		AddRow(id, orgID, userID, role, false)
}

// Removing a member is delete-class on the users resource, which only
// the owner holds. An admin can change roles but not remove people.
func TestRemoveMemberDeniedForAdmin(t *testing.T) {
	mock := setupHandlerTest(t)
	actorID := uuid.New()
	orgID := uuid.New()
	membershipID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "organization_memberships"`).
		WithArgs(actorID, orgID, 1).
		WillReturnRows(membershipRow(uuid.New(), orgID, actorID, "admin"))

	c, w := testRequest(t, http.MethodDelete,
		"/api/organizations/"+orgID.String()+"/members/"+membershipID.String(), nil, actorID)
	c.Params = gin.Params{
		{Key: "id", Value: orgID.String()},
		{Key: "member_id", Value: membershipID.String()},
	}
	RemoveMember(c)

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "Permission denied")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveMemberByOwner(t *testing.T) {
	mock := setupHandlerTest(t)
	actorID := uuid.New()
	orgID := uuid.New()
	membershipID := uuid.New()
	memberID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "organization_memberships"`).
		WithArgs(actorID, orgID, 1).
		WillReturnRows(membershipRow(uuid.New(), orgID, actorID, "owner"))
	mock.ExpectQuery(`SELECT \* FROM "organization_memberships"`).
		WithArgs(membershipID, orgID, false, 1).
		WillReturnRows(membershipRow(membershipID, orgID, memberID, "field_worker"))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
	mock.ExpectCommit()
	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "organization_memberships"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	c, w := testRequest(t, http.MethodDelete,
		"/api/organizations/"+orgID.String()+"/members/"+membershipID.String(), nil, actorID)
	c.Params = gin.Params{
		{Key: "id", Value: orgID.String()},
		{Key: "member_id", Value: membershipID.String()},
	}
	RemoveMember(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveMemberOwnerCannotBeRemoved(t *testing.T) {
	mock := setupHandlerTest(t)
	actorID := uuid.New()
	orgID := uuid.New()
	membershipID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "organization_memberships"`).
		WithArgs(actorID, orgID, 1).
		WillReturnRows(membershipRow(uuid.New(), orgID, actorID, "owner"))
	mock.ExpectQuery(`SELECT \* FROM "organization_memberships"`).
		WithArgs(membershipID, orgID, false, 1).
		WillReturnRows(membershipRow(membershipID, orgID, uuid.New(), "owner"))

	c, w := testRequest(t, http.MethodDelete,
		"/api/organizations/"+orgID.String()+"/members/"+membershipID.String(), nil, actorID)
	c.Params = gin.Params{
		{Key: "id", Value: orgID.String()},
		{Key: "member_id", Value: membershipID.String()},
	}
	RemoveMember(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "The owner cannot be removed")
	assert.NoError(t, mock.ExpectationsWereMet())
}
