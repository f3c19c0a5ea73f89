package auth

import (
	"context"
	"testing"
	"time"

	"github.com/ParkEase/service-parking/internal/common/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAccounts map[uuid.UUID]Account

func (s stubAccounts) LookupAccount(_ context.Context, userID uuid.UUID) (Account, error) {
	acc, ok := s[userID]
	if !ok {
		return Account{}, domain.NewNotFoundError("User", userID.String())
	}
	return acc, nil
}

func TestTokenAuthenticator(t *testing.T) {
	mgr := NewJWTManager("test-secret", time.Minute, time.Hour)
	active := uuid.New()
	inactive := uuid.New()
	accounts := stubAccounts{
		active:   {Role: RoleAdmin, Active: true},
		inactive: {Role: RoleUser, Active: false},
	}
	authn := NewTokenAuthenticator(mgr, accounts)
	ctx := context.Background()

	t.Run("active account uses stored role", func(t *testing.T) {
		token, err := mgr.GenerateAccessToken(active, RoleUser)
		require.NoError(t, err)

		id, err := authn.Authenticate(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, active, id.UserID)
		assert.True(t, id.IsAdmin())
	})

	t.Run("deactivated account is forbidden", func(t *testing.T) {
		token, err := mgr.GenerateAccessToken(inactive, RoleUser)
		require.NoError(t, err)

		_, err = authn.Authenticate(ctx, token)
		assert.True(t, domain.IsKind(err, domain.KindForbidden))
	})

	t.Run("unknown account is unauthorized", func(t *testing.T) {
		token, err := mgr.GenerateAccessToken(uuid.New(), RoleUser)
		require.NoError(t, err)

		_, err = authn.Authenticate(ctx, token)
		assert.True(t, domain.IsKind(err, domain.KindUnauthorized))
	})

	t.Run("token signed with another secret is rejected", func(t *testing.T) {
		other := NewJWTManager("other-secret", time.Minute, time.Hour)
		token, err := other.GenerateAccessToken(active, RoleAdmin)
		require.NoError(t, err)

		_, err = authn.Authenticate(ctx, token)
		assert.True(t, domain.IsKind(err, domain.KindUnauthorized))
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		expired := NewJWTManager("test-secret", -time.Minute, time.Hour)
		token, err := expired.GenerateAccessToken(active, RoleAdmin)
		require.NoError(t, err)

		_, err = authn.Authenticate(ctx, token)
		assert.True(t, domain.IsKind(err, domain.KindUnauthorized))
	})

	t.Run("empty token", func(t *testing.T) {
		_, err := authn.Authenticate(ctx, "  ")
		assert.True(t, domain.IsKind(err, domain.KindUnauthorized))
	})
}
