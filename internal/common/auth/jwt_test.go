package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTManager_RoundTrip(t *testing.T) {
	m := NewJWTManager("secret", 15*time.Minute, 24*time.Hour)
	userID := uuid.New()

	access, err := m.GenerateAccessToken(userID, RoleAdmin)
	require.NoError(t, err)
	refresh, err := m.GenerateRefreshToken(userID, RoleAdmin)
	require.NoError(t, err)

	accessClaims, err := m.ValidateToken(access)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), accessClaims.UserID)
	assert.Equal(t, string(RoleAdmin), accessClaims.Role)

	refreshClaims, err := m.ValidateToken(refresh)
	require.NoError(t, err)
	assert.True(t, refreshClaims.ExpiresAt.After(accessClaims.ExpiresAt.Time))
}

func TestJWTManager_Rejects(t *testing.T) {
	userID := uuid.New()

	expired, err := NewJWTManager("secret", -time.Minute, time.Hour).GenerateAccessToken(userID, RoleUser)
	require.NoError(t, err)
	foreign, err := NewJWTManager("other", time.Minute, time.Hour).GenerateAccessToken(userID, RoleUser)
	require.NoError(t, err)

	m := NewJWTManager("secret", time.Minute, time.Hour)
	tests := []struct {
		name  string
		token string
	}{
		{"expired", expired},
		{"wrong secret", foreign},
		{"garbage", "not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.ValidateToken(tt.token)
			assert.Error(t, err)
		})
	}
}
