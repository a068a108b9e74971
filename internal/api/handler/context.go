package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/itroad/users-service/internal/api/middleware"
	"github.com/itroad/users-service/internal/core/domain"
)

// ctxIdentity extracts the identity injected by the Auth middleware. Its
// absence means the route was mounted without authentication.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return domain.Identity{}, domain.ErrMissingCredentials
	}
	return id, nil
}

// pathID parses the :id path parameter.
func pathID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	return id, nil
}

// queryFilter returns the query parameter or the "all" sentinel when it is
// missing or blank.
func queryFilter(c echo.Context, name string) string {
	if v := c.QueryParam(name); v != "" {
		return v
	}
	return "all"
}
