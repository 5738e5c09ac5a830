package router

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	echoSwagger "github.com/swaggo/echo-swagger"

	"inkwell/docs"
	"inkwell/internal/auth"
	"inkwell/internal/config"
	"inkwell/internal/errors"
	"inkwell/internal/handler"
	"inkwell/internal/model"
	"inkwell/internal/validation"
	"inkwell/internal/web"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	guard *auth.Guard,
	authHandler *handler.AuthHandler,
	postHandler *handler.PostHandler,
	adminHandler *handler.AdminPostHandler,
	pages *web.Handler,
) {
	e.Use(middleware.RequestID())
	e.Use(requestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(middleware.BodyLimit("1M"))

	e.Validator = validation.New()
	e.HTTPErrorHandler = errors.NewHTTPErrorHandler()

	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = swaggerHost(cfg.SwaggerHost)
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Reader pages
	e.GET("/", pages.Index)
	e.GET("/blog/:slug", pages.Post)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.GET("/posts", postHandler.List)
	api.GET("/posts/:slug", postHandler.GetBySlug)

	// Secured routes (require JWT authentication)
	authenticated := guard.Authenticate()
	writers := auth.RequireRole(model.RoleAdmin, model.RoleAuthor)

	api.POST("/auth/logout", authHandler.Logout, authenticated)
	api.GET("/auth/me", authHandler.Me, authenticated)
	api.POST("/posts", postHandler.Create, authenticated, writers)

	admin := api.Group("/admin/posts", authenticated, writers)
	admin.GET("", adminHandler.List)
	admin.GET("/:id", adminHandler.Get)
	admin.PUT("/:id", adminHandler.Update)
	admin.DELETE("/:id", adminHandler.Delete)
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			event := log.Info()
			if v.Error != nil {
				event = log.Error().Err(v.Error)
			}
			event.
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}

// swaggerHost strips the scheme, since swagger expects host[:port].
func swaggerHost(h string) string {
	h = strings.TrimPrefix(h, "http://")
	h = strings.TrimPrefix(h, "https://")
	return strings.TrimSuffix(h, "/")
}
