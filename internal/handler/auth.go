package handler

import (
    "context"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/academy-access/internal/model"
    "github.com/iliyamo/academy-access/internal/service"
)

// Authenticator is the part of service.AuthService the auth endpoints use.
type Authenticator interface {
    Login(ctx context.Context, username, password string) (service.Session, error)
    Refresh(ctx context.Context, raw string) (service.Session, error)
    Logout(ctx context.Context, actor model.Identity, raw string) (bool, error)
}

// PermissionViewer resolves a principal's permissions.  Implemented by
// service.GrantService.
type PermissionViewer interface {
    For(ctx context.Context, actor model.Identity, target model.PrincipalRef) (service.PrincipalPermissions, error)
}

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
    Auth  Authenticator
    Perms PermissionViewer
}

func NewAuthHandler(auth Authenticator, perms PermissionViewer) *AuthHandler {
    return &AuthHandler{Auth: auth, Perms: perms}
}

// ----- DTOs -----

type loginReq struct {
    Username string `json:"username" form:"username"`
    Password string `json:"password" form:"password"`
}

type refreshReq struct {
    RefreshToken string `json:"refresh_token" form:"refresh_token"`
}

// Login: users are tried before coaches; the response says which one
// matched.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    if strings.TrimSpace(req.Username) == "" || req.Password == "" {
        return invalid(c, "username/password required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    s, err := h.Auth.Login(ctx, req.Username, req.Password)
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, newSessionView(s))
}

// Refresh: the presented token is revoked and a new pair issued.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return invalid(c, "refresh_token required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    s, err := h.Auth.Refresh(ctx, strings.TrimSpace(req.RefreshToken))
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, newSessionView(s))
}

// Logout revokes the refresh token.  Unknown or already revoked tokens
// still succeed.
func (h *AuthHandler) Logout(c echo.Context) error {
    id, err := actor(c)
    if err != nil {
        return fail(c, err)
    }
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return invalid(c, "refresh_token required")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    revoked, err := h.Auth.Logout(ctx, id, strings.TrimSpace(req.RefreshToken))
    if err != nil {
        return fail(c, err)
    }
    msg := "logged out"
    if !revoked {
        msg = "token already revoked or invalid"
    }
    return c.JSON(http.StatusOK, echo.Map{"message": msg, "success": true})
}

// Me returns the authenticated principal with its effective permissions.
func (h *AuthHandler) Me(c echo.Context) error {
    id, err := actor(c)
    if err != nil {
        return fail(c, err)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    p, err := h.Perms.For(ctx, id, id.Ref())
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, newPrincipalPermissionsView(p))
}
