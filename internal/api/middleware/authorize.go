package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/itroad/users-service/internal/core/domain"
	"github.com/itroad/users-service/internal/core/policy"
	"github.com/itroad/users-service/internal/pkg/metrics"
)

// Authorize asks the policy whether the authenticated identity may perform
// action. Actions that need a target read it from the :id path parameter.
func Authorize(action policy.Action, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFrom(c)
			if !ok {
				return domain.ErrMissingCredentials
			}

			var target int64
			if action.NeedsTarget() {
				parsed, err := strconv.ParseInt(c.Param("id"), 10, 64)
				if err != nil || parsed <= 0 {
					return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
				}
				target = parsed
			}

			decision := policy.Authorize(id, action, target)
			if !decision.Allowed {
				metrics.AuthorizationDenialsTotal.WithLabelValues(string(action)).Inc()
				log.Info().
					Int64("user_id", id.UserID).
					Str("role", id.Role.String()).
					Str("action", string(action)).
					Int64("target_id", target).
					Str("reason", decision.Reason).
					Msg("authorization denied")
				return decision.Err()
			}
			return next(c)
		}
	}
}
