package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/itroad/users-service/internal/core/domain"
	"github.com/itroad/users-service/internal/core/ports"
	"github.com/itroad/users-service/internal/pkg/metrics"
)

// Authenticator resolves a bearer token into the Identity of a stored user.
// The role is always taken from the store, never from the token.
type Authenticator struct {
	verifier ports.TokenVerifier
	repo     ports.UserRepository
	cache    ports.IdentityCache
	logger   zerolog.Logger
}

// NewAuthenticator builds an Authenticator. cache may be nil.
func NewAuthenticator(verifier ports.TokenVerifier, repo ports.UserRepository, cache ports.IdentityCache, logger zerolog.Logger) *Authenticator {
	if cache == nil {
		cache = noopCache{}
	}
	return &Authenticator{verifier: verifier, repo: repo, cache: cache, logger: logger}
}

// Authenticate fails with ErrMissingCredentials, ErrInvalidToken,
// ErrTokenExpired or ErrUnknownSubject.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (domain.Identity, error) {
	id, err := a.authenticate(ctx, token)
	if err != nil {
		metrics.AuthFailuresTotal.WithLabelValues(authFailureReason(err)).Inc()
	}
	return id, err
}

func (a *Authenticator) authenticate(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.ErrMissingCredentials
	}

	claims, err := a.verifier.Verify(token)
	if err != nil {
		return domain.Identity{}, err
	}

	id, ok, err := a.cache.Get(ctx, claims.Subject)
	if err != nil {
		a.logger.Warn().Err(err).Msg("identity cache read failed")
	}
	if ok && id != nil {
		return *id, nil
	}

	// Taken before the store read so a concurrent update can veto the fill.
	gen, genErr := a.cache.Generation(ctx, claims.Subject)
	if genErr != nil {
		a.logger.Warn().Err(genErr).Msg("identity cache generation read failed")
	}

	u, err := a.repo.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			a.logger.Debug().Str("subject", claims.Subject).Msg("token subject has no account")
			return domain.Identity{}, domain.ErrUnknownSubject
		}
		return domain.Identity{}, fmt.Errorf("resolving token subject: %w", err)
	}

	identity := domain.Identity{UserID: u.ID, Username: u.Username, Role: u.Role}
	if genErr == nil {
		if err := a.cache.Set(ctx, identity, gen); err != nil {
			a.logger.Warn().Err(err).Msg("identity cache write failed")
		}
	}
	return identity, nil
}

func authFailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingCredentials):
		return "missing_credentials"
	case errors.Is(err, domain.ErrTokenExpired):
		return "token_expired"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrUnknownSubject):
		return "unknown_subject"
	default:
		return "error"
	}
}

type noopCache struct{}

func (noopCache) Get(context.Context, string) (*domain.Identity, bool, error) { return nil, false, nil }
func (noopCache) Generation(context.Context, string) (uint64, error)          { return 0, nil }
func (noopCache) Set(context.Context, domain.Identity, uint64) error          { return nil }
func (noopCache) Invalidate(context.Context, string) error                    { return nil }
