package rbac

import (
	"context"
	"errors"
	"testing"

	"vinesight-backend/shared/database/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	farms       map[uuid.UUID]*models.Farm
	memberships map[uuid.UUID]*models.OrganizationMembership
	err         error
	calls       int
}

func (s *stubStore) GetFarm(ctx context.Context, farmID uuid.UUID) (*models.Farm, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.farms[farmID], nil
}

func (s *stubStore) GetMembership(ctx context.Context, userID, organizationID uuid.UUID) (*models.OrganizationMembership, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.memberships[userID], nil
}

func newTestEngine(t *testing.T, store *stubStore) *Engine {
	t.Helper()
	engine, err := New(store)
	require.NoError(t, err)
	return engine
}

func TestNewRequiresStore(t *testing.T) {
	_, err := New(nil)
	assert.ErrorIs(t, err, ErrNilStore)
}

func TestHasPermissionMalformedInput(t *testing.T) {
	store := &stubStore{}
	engine := newTestEngine(t, store)
	ctx := context.Background()
	orgID := uuid.New()

	ok, err := engine.HasPermission(ctx, uuid.Nil, orgID, ResourceFarms, PermissionRead, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = engine.HasPermission(ctx, uuid.New(), orgID, Resource("databases"), PermissionRead, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = engine.HasPermission(ctx, uuid.New(), orgID, ResourceFarms, Permission("manage"), nil)
	require.NoError(t, err)
	assert.False(t, ok)

	// Malformed input is rejected before any store lookup.
	assert.Zero(t, store.calls)
}

func TestHasPermissionIndividualOwnerBypass(t *testing.T) {
	ownerID := uuid.New()
	farm := &models.Farm{ID: uuid.New(), OwnerID: ownerID}
	store := &stubStore{farms: map[uuid.UUID]*models.Farm{farm.ID: farm}}
	engine := newTestEngine(t, store)
	ctx := context.Background()

	for _, permission := range AllPermissions {
		ok, err := engine.HasPermission(ctx, ownerID, uuid.Nil, ResourceFarms, permission, &farm.ID)
		require.NoError(t, err)
		assert.True(t, ok, "owner denied %s on own individual farm", permission)
	}

	ok, err := engine.HasPermission(ctx, uuid.New(), uuid.Nil, ResourceFarms, PermissionRead, &farm.ID)
	require.NoError(t, err)
	assert.False(t, ok, "non-owner granted access to individual farm")
}

func TestHasPermissionFarmNotFound(t *testing.T) {
	engine := newTestEngine(t, &stubStore{})
	farmID := uuid.New()

	ok, err := engine.HasPermission(context.Background(), uuid.New(), uuid.New(), ResourceFarms, PermissionRead, &farmID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasPermissionFarmGateAndMatrix(t *testing.T) {
	orgID := uuid.New()
	actorID := uuid.New()
	accessible := &models.Farm{ID: uuid.New(), OwnerID: uuid.New(), OrganizationID: &orgID, Visibility: models.FarmVisibilityPrivate}
	hidden := &models.Farm{ID: uuid.New(), OwnerID: uuid.New(), OrganizationID: &orgID, Visibility: models.FarmVisibilityPrivate}

	store := &stubStore{
		farms: map[uuid.UUID]*models.Farm{accessible.ID: accessible, hidden.ID: hidden},
		memberships: map[uuid.UUID]*models.OrganizationMembership{
			actorID: {
				UserID:          actorID,
				OrganizationID:  orgID,
				Role:            string(RoleFieldWorker),
				AssignedFarmIDs: []uuid.UUID{accessible.ID},
			},
		},
	}
	engine := newTestEngine(t, store)
	ctx := context.Background()

	// Farm access plus matrix grant.
	ok, err := engine.HasPermission(ctx, actorID, orgID, ResourceIrrigationRecords, PermissionCreate, &accessible.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Farm access but the matrix denies the permission.
	ok, err = engine.HasPermission(ctx, actorID, orgID, ResourceIrrigationRecords, PermissionDelete, &accessible.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	// Matrix would grant but the farm gate denies.
	ok, err = engine.HasPermission(ctx, actorID, orgID, ResourceIrrigationRecords, PermissionCreate, &hidden.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasPermissionNoMembership(t *testing.T) {
	engine := newTestEngine(t, &stubStore{})

	ok, err := engine.HasPermission(context.Background(), uuid.New(), uuid.New(), ResourceRecords, PermissionRead, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasPermissionSoftDeletedMembership(t *testing.T) {
	orgID := uuid.New()
	actorID := uuid.New()
	store := &stubStore{
		memberships: map[uuid.UUID]*models.OrganizationMembership{
			actorID: {UserID: actorID, OrganizationID: orgID, Role: string(RoleOwner), Deleted: true},
		},
	}
	engine := newTestEngine(t, store)

	ok, err := engine.HasPermission(context.Background(), actorID, orgID, ResourceFarms, PermissionRead, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasPermissionUnknownStoredRole(t *testing.T) {
	orgID := uuid.New()
	actorID := uuid.New()
	store := &stubStore{
		memberships: map[uuid.UUID]*models.OrganizationMembership{
			actorID: {UserID: actorID, OrganizationID: orgID, Role: "superuser"},
		},
	}
	engine := newTestEngine(t, store)

	ok, err := engine.HasPermission(context.Background(), actorID, orgID, ResourceFarms, PermissionRead, nil)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHasPermissionStoreErrorIsNotADecision(t *testing.T) {
	storeErr := errors.New("connection refused")
	engine := newTestEngine(t, &stubStore{err: storeErr})

	ok, err := engine.HasPermission(context.Background(), uuid.New(), uuid.New(), ResourceFarms, PermissionRead, nil)
	assert.False(t, ok)
	assert.ErrorIs(t, err, storeErr)

	farmID := uuid.New()
	ok, err = engine.HasPermission(context.Background(), uuid.New(), uuid.New(), ResourceFarms, PermissionRead, &farmID)
	assert.False(t, ok)
	assert.ErrorIs(t, err, storeErr)
}

func TestResolveMembership(t *testing.T) {
	orgID := uuid.New()
	actorID := uuid.New()
	assigned := uuid.New()
	store := &stubStore{
		memberships: map[uuid.UUID]*models.OrganizationMembership{
			actorID: {
				UserID:          actorID,
				OrganizationID:  orgID,
				Role:            string(RoleSupervisor),
				AssignedFarmIDs: []uuid.UUID{assigned},
			},
		},
	}
	engine := newTestEngine(t, store)

	membership, err := engine.ResolveMembership(context.Background(), actorID, orgID)
	require.NoError(t, err)
	require.NotNil(t, membership)
	assert.Equal(t, RoleSupervisor, membership.Role)
	assert.Equal(t, []uuid.UUID{assigned}, membership.AssignedFarmIDs)

	membership, err = engine.ResolveMembership(context.Background(), uuid.New(), orgID)
	require.NoError(t, err)
	assert.Nil(t, membership)
}

func TestHasPermissionRereadsStoreEveryCall(t *testing.T) {
	actorID := uuid.New()
	orgID := uuid.New()
	farmID := uuid.New()
	store := &stubStore{
		farms: map[uuid.UUID]*models.Farm{
			farmID: {ID: farmID, OrganizationID: &orgID, Visibility: "org_wide"},
		},
		memberships: map[uuid.UUID]*models.OrganizationMembership{
			actorID: {UserID: actorID, OrganizationID: orgID, Role: string(RoleFieldWorker)},
		},
	}
	engine := newTestEngine(t, store)
	ctx := context.Background()

	first, err := engine.HasPermission(ctx, actorID, orgID, ResourceIrrigationRecords, PermissionRead, &farmID)
	require.NoError(t, err)
	assert.True(t, first)
	callsAfterFirst := store.calls
	require.Positive(t, callsAfterFirst)

	// Same inputs, same answer, and the store is consulted again: a
	// decision is never served from memory of a previous one.
	second, err := engine.HasPermission(ctx, actorID, orgID, ResourceIrrigationRecords, PermissionRead, &farmID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 2*callsAfterFirst, store.calls)

	// Revoking the membership flips the very next decision.
	store.memberships[actorID].Deleted = true
	third, err := engine.HasPermission(ctx, actorID, orgID, ResourceIrrigationRecords, PermissionRead, &farmID)
	require.NoError(t, err)
	assert.False(t, third)
}
