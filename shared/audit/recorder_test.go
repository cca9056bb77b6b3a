package audit

import (
	"context"
	"errors"
	"testing"

	"vinesight-backend/shared/rbac"
	utils "vinesight-backend/shared/utils/auth"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRecorder(t *testing.T) (*Recorder, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return NewRecorder(gormDB), mock
}

func actorContext(actorID uuid.UUID) context.Context {
	return utils.WithActor(context.Background(), actorID)
}

func validEntry(orgID uuid.UUID) Entry {
	return Entry{
		OrganizationID: orgID,
		Action:         ActionCreate,
		ResourceType:   rbac.ResourceFarms,
		ResourceID:     uuid.New().String(),
		NewValues:      map[string]interface{}{"name": "North Block"},
	}
}

func TestLogRequiresActorInContext(t *testing.T) {
	recorder, mock := newMockRecorder(t)

	_, err := recorder.Log(context.Background(), validEntry(uuid.New()))
	assert.ErrorIs(t, err, ErrNoActor)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogValidation(t *testing.T) {
	recorder, mock := newMockRecorder(t)
	ctx := actorContext(uuid.New())
	orgID := uuid.New()

	missingOrg := validEntry(orgID)
	missingOrg.OrganizationID = uuid.Nil
	_, err := recorder.Log(ctx, missingOrg)
	assert.ErrorIs(t, err, ErrMissingOrganization)

	badAction := validEntry(orgID)
	badAction.Action = Action("approve")
	_, err = recorder.Log(ctx, badAction)
	assert.ErrorIs(t, err, ErrUnknownAction)

	badResource := validEntry(orgID)
	badResource.ResourceType = rbac.Resource("documents")
	_, err = recorder.Log(ctx, badResource)
	assert.ErrorIs(t, err, ErrMissingResourceType)

	missingID := validEntry(orgID)
	missingID.ResourceID = ""
	_, err = recorder.Log(ctx, missingID)
	assert.ErrorIs(t, err, ErrMissingResourceID)

	// Validation failures never reach the database.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogUpdateRequiresBothSnapshots(t *testing.T) {
	recorder, mock := newMockRecorder(t)
	ctx := actorContext(uuid.New())
	orgID := uuid.New()

	entry := validEntry(orgID)
	entry.Action = ActionUpdate
	entry.OldValues = nil
	entry.NewValues = map[string]interface{}{"name": "after"}
	_, err := recorder.Log(ctx, entry)
	assert.ErrorIs(t, err, ErrMissingSnapshots)

	entry.OldValues = map[string]interface{}{"name": "before"}
	entry.NewValues = nil
	_, err = recorder.Log(ctx, entry)
	assert.ErrorIs(t, err, ErrMissingSnapshots)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogWritesEntry(t *testing.T) {
	recorder, mock := newMockRecorder(t)
	actorID := uuid.New()
	orgID := uuid.New()
	entryID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(entryID))
	mock.ExpectCommit()

	id, err := recorder.Log(actorContext(actorID), validEntry(orgID))
	require.NoError(t, err)
	assert.Equal(t, entryID, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogWriteFailurePropagates(t *testing.T) {
	recorder, mock := newMockRecorder(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "audit_logs"`).
		WillReturnError(errors.New("connection refused"))
	mock.ExpectRollback()

	_, err := recorder.Log(actorContext(uuid.New()), validEntry(uuid.New()))
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLogHelpers(t *testing.T) {
	recorder, mock := newMockRecorder(t)
	ctx := actorContext(uuid.New())
	orgID := uuid.New()
	resourceID := uuid.New().String()

	expectInsert := func() {
		mock.ExpectBegin()
		mock.ExpectQuery(`INSERT INTO "audit_logs"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(uuid.New()))
		mock.ExpectCommit()
	}

	expectInsert()
	_, err := recorder.LogCreate(ctx, orgID, rbac.ResourceFarms, resourceID, map[string]interface{}{"name": "a"})
	require.NoError(t, err)

	expectInsert()
	_, err = recorder.LogUpdate(ctx, orgID, rbac.ResourceFarms, resourceID,
		map[string]interface{}{"name": "a"}, map[string]interface{}{"name": "b"})
	require.NoError(t, err)

	expectInsert()
	_, err = recorder.LogDelete(ctx, orgID, rbac.ResourceFarms, resourceID, map[string]interface{}{"name": "b"})
	require.NoError(t, err)

	expectInsert()
	_, err = recorder.LogExport(ctx, orgID, rbac.ResourceReports, resourceID,
		map[string]interface{}{"record_type": "harvest"})
	require.NoError(t, err)

	expectInsert()
	_, err = recorder.LogInvite(ctx, orgID, resourceID, map[string]interface{}{"role": "viewer"})
	require.NoError(t, err)

	expectInsert()
	_, err = recorder.LogRemove(ctx, orgID, resourceID, map[string]interface{}{"role": "viewer"})
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestActionVocabulary(t *testing.T) {
	for _, action := range []Action{ActionCreate, ActionUpdate, ActionDelete, ActionExport, ActionInvite, ActionRemove, ActionView} {
		assert.True(t, action.Valid(), "action %s", action)
	}
	assert.False(t, Action("approve").Valid())
	assert.False(t, Action("").Valid())
}
