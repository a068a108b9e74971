package service

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/itroad/users-service/internal/core/domain"
)

// tokenClaims is the payload this service accepts: the registered claims
// (subject = username) plus a role.
type tokenClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

var validMethods = []string{
	jwt.SigningMethodHS256.Alg(),
	jwt.SigningMethodHS384.Alg(),
	jwt.SigningMethodHS512.Alg(),
}

// TokenVerifier validates HMAC-signed JWTs against a shared secret.
type TokenVerifier struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
	log      zerolog.Logger
}

// NewTokenVerifier returns a verifier for secret. lifetime bounds tokens that
// carry an iat claim but no exp claim.
func NewTokenVerifier(secret string, lifetime time.Duration, log zerolog.Logger) *TokenVerifier {
	return &TokenVerifier{
		secret:   []byte(secret),
		lifetime: lifetime,
		now:      time.Now,
		log:      log,
	}
}

// WithClock replaces the time source. Intended for tests.
func (v *TokenVerifier) WithClock(now func() time.Time) *TokenVerifier {
	v.now = now
	return v
}

// Verify checks expiry, signature and required claims, in that order. An
// expired token is reported as domain.ErrTokenExpired whatever its signature.
func (v *TokenVerifier) Verify(raw string) (domain.Claims, error) {
	var unverified tokenClaims
	if _, _, err := jwt.NewParser().ParseUnverified(raw, &unverified); err != nil {
		return domain.Claims{}, v.reject("malformed", err, domain.ErrInvalidToken)
	}

	expiresAt, ok := v.expiry(&unverified)
	if !ok {
		return domain.Claims{}, v.reject("no expiry", nil, domain.ErrInvalidToken)
	}
	if !v.now().Before(expiresAt) {
		return domain.Claims{}, v.reject("expired", nil, domain.ErrTokenExpired)
	}

	var claims tokenClaims
	parser := jwt.NewParser(jwt.WithValidMethods(validMethods), jwt.WithTimeFunc(v.now))
	tkn, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return domain.Claims{}, v.reject("expired", err, domain.ErrTokenExpired)
		}
		return domain.Claims{}, v.reject("verification failed", err, domain.ErrInvalidToken)
	}
	if !tkn.Valid {
		return domain.Claims{}, v.reject("not valid", nil, domain.ErrInvalidToken)
	}

	if claims.Subject == "" {
		return domain.Claims{}, v.reject("missing subject", nil, domain.ErrInvalidToken)
	}
	if claims.Role == "" {
		return domain.Claims{}, v.reject("missing role", nil, domain.ErrInvalidToken)
	}
	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return domain.Claims{}, v.reject("unknown role", nil, domain.ErrInvalidToken)
	}

	return domain.Claims{
		Subject:   claims.Subject,
		Role:      role,
		ExpiresAt: expiresAt,
	}, nil
}

func (v *TokenVerifier) expiry(c *tokenClaims) (time.Time, bool) {
	if c.ExpiresAt != nil {
		return c.ExpiresAt.Time, true
	}
	if c.IssuedAt != nil && v.lifetime > 0 {
		return c.IssuedAt.Add(v.lifetime), true
	}
	return time.Time{}, false
}

// reject logs the reason (never the token) and returns sentinel.
func (v *TokenVerifier) reject(reason string, cause error, sentinel error) error {
	ev := v.log.Debug().Str("reason", reason)
	if cause != nil {
		ev = ev.Err(cause)
	}
	ev.Msg("token rejected")
	return sentinel
}
