package utils

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndValidateJWT(t *testing.T) {
	userID := uuid.New()
	orgID := uuid.New()

	token, err := GenerateJWT(userID, "grower@vinesight.app", &orgID, "farm_manager")
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "grower@vinesight.app", claims.Email)
	assert.Equal(t, orgID.String(), claims.OrganizationID)
	assert.Equal(t, "farm_manager", claims.Role)
}

func TestGenerateJWTWithoutOrganization(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateJWT(userID, "solo@vinesight.app", nil, "")
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Empty(t, claims.OrganizationID)
	assert.Empty(t, claims.Role)
}

func TestValidateJWTRejectsGarbage(t *testing.T) {
	_, err := ValidateJWT("not.a.token")
	assert.Error(t, err)

	_, err = ValidateJWT("")
	assert.Error(t, err)
}

func TestRefreshTokenCarriesNoOrganization(t *testing.T) {
	userID := uuid.New()

	token, err := GenerateRefreshJWT(userID, "grower@vinesight.app")
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Empty(t, claims.OrganizationID)

	assert.False(t, IsTokenExpired(token))
}

func TestActorContext(t *testing.T) {
	id := uuid.New()
	ctx := WithActor(context.Background(), id)

	got, ok := ActorFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = ActorFromContext(context.Background())
	assert.False(t, ok)

	_, ok = ActorFromContext(WithActor(context.Background(), uuid.Nil))
	assert.False(t, ok, "nil actor is no actor")
}
