package ports

import (
	"context"

	"github.com/itroad/users-service/internal/core/domain"
)

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (domain.Claims, error)
}

// Authenticator resolves a bearer token to the identity of a stored user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.Identity, error)
}
