package rbac

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*GormStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	return NewGormStore(gormDB), mock
}

func TestGormStoreGetFarm(t *testing.T) {
	store, mock := newMockStore(t)
	farmID := uuid.New()
	orgID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "name", "owner_id", "organization_id", "visibility"}).
		AddRow(farmID, "North Block", uuid.New(), orgID, "org_wide")
	mock.ExpectQuery(`SELECT \* FROM "farms"`).
		WithArgs(farmID, 1).
		WillReturnRows(rows)

	farm, err := store.GetFarm(context.Background(), farmID)
	require.NoError(t, err)
	require.NotNil(t, farm)
	assert.Equal(t, farmID, farm.ID)
	assert.Equal(t, "North Block", farm.Name)
	require.NotNil(t, farm.OrganizationID)
	assert.Equal(t, orgID, *farm.OrganizationID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreGetFarmNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	farmID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "farms"`).
		WithArgs(farmID, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	farm, err := store.GetFarm(context.Background(), farmID)
	require.NoError(t, err)
	assert.Nil(t, farm)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreGetFarmQueryError(t *testing.T) {
	store, mock := newMockStore(t)
	farmID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "farms"`).
		WithArgs(farmID, 1).
		WillReturnError(errors.New("connection refused"))

	farm, err := store.GetFarm(context.Background(), farmID)
	assert.Nil(t, farm)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreGetMembership(t *testing.T) {
	store, mock := newMockStore(t)
	userID := uuid.New()
	orgID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "organization_id", "user_id", "role", "deleted"}).
		AddRow(uuid.New(), orgID, userID, "field_worker", false)
	mock.ExpectQuery(`SELECT \* FROM "organization_memberships"`).
		WithArgs(userID, orgID, 1).
		WillReturnRows(rows)

	membership, err := store.GetMembership(context.Background(), userID, orgID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	assert.Equal(t, "field_worker", membership.Role)
	assert.False(t, membership.Deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreGetMembershipIncludesSoftDeleted(t *testing.T) {
	// The store hands back soft-deleted rows; the resolver turns them
	// into "no access".
	store, mock := newMockStore(t)
	userID := uuid.New()
	orgID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "organization_id", "user_id", "role", "deleted"}).
		AddRow(uuid.New(), orgID, userID, "admin", true)
	mock.ExpectQuery(`SELECT \* FROM "organization_memberships"`).
		WithArgs(userID, orgID, 1).
		WillReturnRows(rows)

	membership, err := store.GetMembership(context.Background(), userID, orgID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	assert.True(t, membership.Deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreGetMembershipNotFound(t *testing.T) {
	store, mock := newMockStore(t)
	userID := uuid.New()
	orgID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "organization_memberships"`).
		WithArgs(userID, orgID, 1).
		WillReturnError(gorm.ErrRecordNotFound)

	membership, err := store.GetMembership(context.Background(), userID, orgID)
	require.NoError(t, err)
	assert.Nil(t, membership)
	assert.NoError(t, mock.ExpectationsWereMet())
}
