package auth

import (
	"context"
	"strings"

	"github.com/ParkEase/service-parking/internal/common/domain"
	"github.com/google/uuid"
)

// Identity is the authenticated caller passed explicitly into every workflow operation.
type Identity struct {
	UserID uuid.UUID
	Role   Role
}

// IsAdmin returns true if the caller holds the admin role.
func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

// Account is the subset of a user record needed to authorize a request.
type Account struct {
	Role   Role
	Active bool
}

// AccountLookup resolves the current state of a user account.
type AccountLookup interface {
	LookupAccount(ctx context.Context, userID uuid.UUID) (Account, error)
}

// Authenticator resolves a bearer credential to a caller identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Identity, error)
}

// TokenAuthenticator verifies JWTs and rejects unknown or deactivated accounts.
// The role stored on the account wins over the role in the token.
type TokenAuthenticator struct {
	jwt      *JWTManager
	accounts AccountLookup
}

// NewTokenAuthenticator creates a new TokenAuthenticator.
func NewTokenAuthenticator(jwt *JWTManager, accounts AccountLookup) *TokenAuthenticator {
	return &TokenAuthenticator{jwt: jwt, accounts: accounts}
}

// Authenticate implements Authenticator.
func (a *TokenAuthenticator) Authenticate(ctx context.Context, token string) (Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Identity{}, domain.NewUnauthorizedError("no authentication token, access denied")
	}

	claims, err := a.jwt.ValidateToken(token)
	if err != nil {
		return Identity{}, domain.NewUnauthorizedError("token is not valid")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return Identity{}, domain.NewUnauthorizedError("token is not valid")
	}

	identity := Identity{UserID: userID, Role: Role(claims.Role)}
	if a.accounts == nil {
		if !identity.Role.IsValid() {
			identity.Role = RoleUser
		}
		return identity, nil
	}

	account, err := a.accounts.LookupAccount(ctx, userID)
	if err != nil {
		if domain.IsKind(err, domain.KindNotFound) {
			return Identity{}, domain.NewUnauthorizedError("token is not valid")
		}
		return Identity{}, err
	}
	if !account.Active {
		return Identity{}, domain.NewForbiddenError("user account is deactivated")
	}
	identity.Role = account.Role
	return identity, nil
}
