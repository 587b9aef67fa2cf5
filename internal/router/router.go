package router // package router defines how HTTP routes are registered for the API

import (
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/academy-access/internal/config"
    "github.com/iliyamo/academy-access/internal/handler"
    "github.com/iliyamo/academy-access/internal/middleware"
    "github.com/iliyamo/academy-access/internal/model"
    "github.com/iliyamo/academy-access/internal/rbac"
)

// Guards holds what the protected route groups need: the bearer resolver,
// the permission gate and the Redis-backed limiter and cache.
type Guards struct {
    Resolver  middleware.IdentityResolver
    Gate      middleware.PermissionGate
    Redis     *redis.Client // nil disables rate limiting and caching
    RateLimit config.RateLimitConfig
    Cache     config.CacheConfig
    Log       *zap.Logger
}

// RegisterRoutes registers the routes that need no authentication: the
// health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, db handler.Pinger, metrics http.Handler) {
    e.GET("/healthz", handler.Health(db))
    e.GET("/metrics", echo.WrapHandler(metrics))
}

// RegisterAuth registers the /v1/auth endpoints and /v1/me.  Login and
// refresh are rate limited; logout and me need a bearer token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guards) {
    limit := middleware.NewTokenBucket(g.RateLimit, g.Redis, g.Log)

    auth := e.Group("/v1/auth")
    auth.POST("/login", a.Login, limit)
    auth.POST("/refresh", a.Refresh, limit)
    auth.POST("/logout", a.Logout, middleware.Authenticate(g.Resolver))

    e.GET("/v1/me", a.Me, middleware.Authenticate(g.Resolver))
}

// RegisterPrincipals registers /v1/users and /v1/coaches.  Creation and
// listing need user credentials; per-principal decisions (view, edit,
// delete) are made by the service for the concrete target.
func RegisterPrincipals(e *echo.Echo, p *handler.PrincipalHandler, g Guards) {
    v1 := e.Group("/v1", middleware.Authenticate(g.Resolver))
    listing := middleware.RequirePermission(g.Gate, rbac.ViewAllUsers)

    users := v1.Group("/users")
    users.POST("", p.CreateUser, middleware.RequireUser())
    users.GET("", p.ListUsers, middleware.RequireUser(), listing)
    users.GET("/:id", p.Get(model.KindUser))
    users.PUT("/:id", p.Update(model.KindUser))
    users.DELETE("/:id", p.Delete(model.KindUser))

    coaches := v1.Group("/coaches")
    coaches.POST("", p.CreateCoach, middleware.RequireUser())
    coaches.GET("", p.ListCoaches, middleware.RequireUser(), listing)
    coaches.GET("/:id", p.Get(model.KindCoach))
    coaches.PUT("/:id", p.Update(model.KindCoach))
    coaches.DELETE("/:id", p.Delete(model.KindCoach))
}

// RegisterPermissions registers /v1/permissions.  The catalog response is
// the same for every caller allowed to see it, so it is served from the
// Redis cache after the permission check.
func RegisterPermissions(e *echo.Echo, h *handler.PermissionHandler, g Guards) {
    perms := e.Group("/v1/permissions", middleware.Authenticate(g.Resolver))
    view := middleware.RequirePermission(g.Gate, rbac.ViewPermissions)

    perms.GET("", h.Catalog, view, middleware.NewRedisCache(g.Cache, g.Redis, g.Log))
    perms.GET("/users/:id", h.For(model.KindUser), view)
    perms.GET("/coaches/:id", h.For(model.KindCoach), view)
    perms.POST("/assign", h.Assign, middleware.RequireUser(), middleware.RequirePermission(g.Gate, rbac.AssignPermissions))
    perms.POST("/revoke", h.Revoke, middleware.RequireUser(), middleware.RequirePermission(g.Gate, rbac.RevokePermissions))
}

// ErrorHandler renders errors returned by handlers as {"error": message}.
// Internal causes are logged, never sent.
func ErrorHandler(log *zap.Logger) echo.HTTPErrorHandler {
    return func(err error, c echo.Context) {
        if c.Response().Committed {
            return
        }
        status := http.StatusInternalServerError
        msg := any("internal error")
        if he, ok := err.(*echo.HTTPError); ok {
            status = he.Code
            if status != http.StatusInternalServerError {
                msg = he.Message
            }
            if he.Internal != nil {
                err = he.Internal
            }
        }
        if status >= http.StatusInternalServerError {
            log.Error("request error", zap.String("path", c.Request().URL.Path), zap.Error(err))
        }
        if c.Request().Method == http.MethodHead {
            _ = c.NoContent(status)
            return
        }
        _ = c.JSON(status, echo.Map{"error": msg})
    }
}
