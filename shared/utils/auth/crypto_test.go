package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("vineyard2026")
	require.NoError(t, err)
	assert.NotEqual(t, "vineyard2026", hash)

	assert.True(t, CheckPasswordHash("vineyard2026", hash))
	assert.False(t, CheckPasswordHash("vineyard2027", hash))
	assert.False(t, CheckPasswordHash("vineyard2026", "not-a-hash"))
}

func TestValidatePassword(t *testing.T) {
	assert.NoError(t, ValidatePassword("vineyard1"))
	assert.NoError(t, ValidatePassword("a1b2c3d4"))

	assert.Error(t, ValidatePassword("short1"), "too short")
	assert.Error(t, ValidatePassword("onlyletters"), "no digit")
	assert.Error(t, ValidatePassword("12345678"), "no letter")
}

func TestGenerateRandomToken(t *testing.T) {
	a, err := GenerateRandomToken(16)
	require.NoError(t, err)
	assert.Len(t, a, 32, "hex doubles the byte length")

	b, err := GenerateRandomToken(16)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
