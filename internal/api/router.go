package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/itroad/users-service/docs"
	"github.com/itroad/users-service/internal/api/handler"
	"github.com/itroad/users-service/internal/api/middleware"
	"github.com/itroad/users-service/internal/core/policy"
	"github.com/itroad/users-service/internal/core/ports"
	"github.com/itroad/users-service/internal/pkg/config"
)

// Dependencies are the collaborators the HTTP layer is built from. Mongo and
// Redis are only used by the readiness probe and may be nil.
type Dependencies struct {
	Users         ports.UserService
	Authenticator ports.Authenticator
	Mongo         *mongo.Database
	Redis         *redis.Client
	CORS          config.CORSConfig
	Logger        zerolog.Logger
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	log := deps.Logger

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestIDWithConfig(echomiddleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(middleware.RequestLogger(log))
	e.Use(middleware.Metrics())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     deps.CORS.AllowedOrigins,
		AllowMethods:     deps.CORS.AllowedMethods,
		AllowHeaders:     deps.CORS.AllowedHeaders,
		ExposeHeaders:    deps.CORS.ExposedHeaders,
		AllowCredentials: deps.CORS.AllowCredentials,
		MaxAge:           deps.CORS.MaxAge,
	}))

	// --- Public routes ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(deps.Mongo, deps.Redis)

	e.GET("/", healthHandler.Root)
	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- User routes (bearer token required) ---
	users := handler.NewUserHandler(deps.Users, log)
	can := func(action policy.Action) echo.MiddlewareFunc {
		return middleware.Authorize(action, log)
	}

	g := e.Group("/api/users", middleware.Auth(deps.Authenticator))
	g.GET("", users.List, can(policy.ActionListUsers))
	g.POST("", users.Create, can(policy.ActionCreateUser))
	g.GET("/me", users.Me, can(policy.ActionReadSelf))
	g.GET("/search", users.Search, can(policy.ActionSearchUsers))
	g.GET("/stats", users.Stats, can(policy.ActionViewStats))
	g.GET("/:id", users.Get, can(policy.ActionReadUser))
	g.PUT("/:id", users.Update, can(policy.ActionUpdateUser))
	g.DELETE("/:id", users.Delete, can(policy.ActionDeleteUser))
	g.PUT("/:id/last-login", users.UpdateLastLogin, can(policy.ActionUpdateLastLogin))

	e.RouteNotFound("/*", func(c echo.Context) error {
		return echo.NewHTTPError(http.StatusNotFound, "route not found")
	})

	return e
}
