package middleware // middleware provides shared request processing for handlers

import (
    "context"
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/academy-access/internal/model"
    "github.com/iliyamo/academy-access/internal/service"
)

// IdentityResolver turns a bearer token into a principal.
// service.AuthService implements it.
type IdentityResolver interface {
    ResolveIdentity(ctx context.Context, bearer string) (model.Identity, error)
}

// Authenticate validates the Bearer access token, loads the principal it
// names and stores it on the context (see IdentityFrom).  Missing or invalid
// tokens get 401; tokens of deactivated principals get 403.
func Authenticate(resolver IdentityResolver) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            scheme, raw, found := strings.Cut(auth, " ")
            if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
                c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing bearer token"})
            }

            ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
            defer cancel()
            id, err := resolver.ResolveIdentity(ctx, raw)
            switch {
            case errors.Is(err, service.ErrForbidden):
                return c.JSON(http.StatusForbidden, echo.Map{"error": "account is inactive"})
            case errors.Is(err, service.ErrUnauthenticated):
                c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid token"})
            case err != nil:
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
            }

            SetIdentity(c, id)
            return next(c)
        }
    }
}
