package handler

import (
    "errors"
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/academy-access/internal/middleware"
    "github.com/iliyamo/academy-access/internal/model"
    "github.com/iliyamo/academy-access/internal/service"
)

// fail maps a service error to a status code.  The message after the
// sentinel prefix is returned to the client; unexpected errors are logged by
// the request logger and answered with a generic 500.
func fail(c echo.Context, err error) error {
    var status int
    switch {
    case errors.Is(err, service.ErrUnauthenticated):
        c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
        status = http.StatusUnauthorized
    case errors.Is(err, service.ErrForbidden):
        status = http.StatusForbidden
    case errors.Is(err, service.ErrInvariantViolation):
        status = http.StatusUnprocessableEntity
    case errors.Is(err, service.ErrNotFound):
        status = http.StatusNotFound
    case errors.Is(err, service.ErrConflict):
        status = http.StatusConflict
    default:
        return echo.NewHTTPError(http.StatusInternalServerError, "internal error").SetInternal(err)
    }
    return c.JSON(status, echo.Map{"error": err.Error()})
}

// actor returns the authenticated principal.  Routes are mounted behind
// middleware.Authenticate, so a missing identity is a wiring bug.
func actor(c echo.Context) (model.Identity, error) {
    id, ok := middleware.IdentityFrom(c)
    if !ok {
        return model.Identity{}, service.ErrUnauthenticated
    }
    return id, nil
}

// pathRef reads :id as a principal of the given kind.
func pathRef(c echo.Context, kind model.PrincipalKind) (model.PrincipalRef, bool) {
    id, err := strconv.ParseUint(c.Param("id"), 10, 64)
    if err != nil || id == 0 {
        return model.PrincipalRef{}, false
    }
    return model.PrincipalRef{Kind: kind, ID: id}, true
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func invalid(c echo.Context, msg string) error {
    return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": msg})
}

func queryInt(c echo.Context, name string) int {
    n, _ := strconv.Atoi(strings.TrimSpace(c.QueryParam(name)))
    return n
}
