package middleware // middleware provides shared request processing for handlers

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/academy-access/internal/model"
)

// PermissionGate answers whether a principal holds a permission.
// service.Authorizer implements it.
type PermissionGate interface {
    Can(ctx context.Context, actor model.Identity, perm string) bool
}

// RequireUser rejects coach principals.  Routes that act on behalf of an
// administrative account (creating principals, managing grants) sit behind
// it.  It assumes Authenticate ran first.
func RequireUser() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id, ok := IdentityFrom(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
            }
            if _, isUser := id.User(); !isUser {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "user credentials required"})
            }
            return next(c)
        }
    }
}

// RequirePermission aborts with 403 unless the authenticated principal
// holds every listed permission.  Permissions are resolved per request.
func RequirePermission(gate PermissionGate, perms ...string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id, ok := IdentityFrom(c)
            if !ok {
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
            }
            ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
            defer cancel()
            for _, p := range perms {
                if !gate.Can(ctx, id, p) {
                    return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden", "missing_permission": p})
                }
            }
            return next(c)
        }
    }
}
