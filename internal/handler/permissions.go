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

// GrantManager is implemented by service.GrantService.
type GrantManager interface {
    PermissionViewer
    Catalog(ctx context.Context, actor model.Identity) ([]model.Permission, error)
    Assign(ctx context.Context, manager model.Identity, target model.PrincipalRef, ref service.PermissionRef) (model.PermissionAssignment, error)
    Revoke(ctx context.Context, manager model.Identity, target model.PrincipalRef, ref service.PermissionRef) (model.Permission, error)
}

// PermissionHandler serves /v1/permissions.
type PermissionHandler struct {
    Grants GrantManager
}

func NewPermissionHandler(g GrantManager) *PermissionHandler {
    return &PermissionHandler{Grants: g}
}

// grantReq names a permission (by id or by name) and exactly one target.
// Zero ids mean "not given".
type grantReq struct {
    PermissionID uint64 `json:"permission_id" form:"permission_id"`
    Permission   string `json:"permission" form:"permission"`
    UserID       uint64 `json:"user_id" form:"user_id"`
    CoachID      uint64 `json:"coach_id" form:"coach_id"`
}

func (r grantReq) target() (model.PrincipalRef, bool) {
    switch {
    case r.UserID != 0 && r.CoachID == 0:
        return model.UserRef(r.UserID), true
    case r.CoachID != 0 && r.UserID == 0:
        return model.CoachRef(r.CoachID), true
    }
    return model.PrincipalRef{}, false
}

func (r grantReq) permission() service.PermissionRef {
    return service.PermissionRef{ID: r.PermissionID, Name: strings.ToLower(strings.TrimSpace(r.Permission))}
}

// Catalog handles GET /v1/permissions.
func (h *PermissionHandler) Catalog(c echo.Context) error {
    id, err := actor(c)
    if err != nil {
        return fail(c, err)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    perms, err := h.Grants.Catalog(ctx, id)
    if err != nil {
        return fail(c, err)
    }
    out := make([]permissionView, 0, len(perms))
    for _, p := range perms {
        out = append(out, permissionView{ID: p.ID, Name: p.Name, Description: p.Description})
    }
    return c.JSON(http.StatusOK, echo.Map{"permissions": out, "total": len(out)})
}

// For returns GET /v1/permissions/users/:id or /coaches/:id.
func (h *PermissionHandler) For(kind model.PrincipalKind) echo.HandlerFunc {
    return func(c echo.Context) error {
        id, err := actor(c)
        if err != nil {
            return fail(c, err)
        }
        target, ok := pathRef(c, kind)
        if !ok {
            return badRequest(c, "invalid id")
        }
        ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
        defer cancel()

        p, err := h.Grants.For(ctx, id, target)
        if err != nil {
            return fail(c, err)
        }
        return c.JSON(http.StatusOK, newPrincipalPermissionsView(p))
    }
}

// bindGrant reads and shape-checks an assign/revoke body.  A body naming
// both or neither target is a validation error, not an authorization one.
// When ok is false the response has been written and err is its result.
func bindGrant(c echo.Context) (req grantReq, target model.PrincipalRef, ok bool, err error) {
    if err := c.Bind(&req); err != nil {
        return req, target, false, badRequest(c, "invalid body")
    }
    target, ok = req.target()
    if !ok {
        return req, target, false, invalid(c, "exactly one of user_id or coach_id is required")
    }
    return req, target, true, nil
}

// Assign handles POST /v1/permissions/assign.
func (h *PermissionHandler) Assign(c echo.Context) error {
    id, err := actor(c)
    if err != nil {
        return fail(c, err)
    }
    req, target, ok, err := bindGrant(c)
    if !ok {
        return err
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    a, err := h.Grants.Assign(ctx, id, target, req.permission())
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message": "permission '" + a.PermissionName + "' assigned successfully",
        "success": true,
        "assignment": assignmentView{ID: a.ID, Permission: a.PermissionName, AssignedBy: a.AssignedBy, AssignedAt: a.AssignedAt},
    })
}

// Revoke handles POST /v1/permissions/revoke.
func (h *PermissionHandler) Revoke(c echo.Context) error {
    id, err := actor(c)
    if err != nil {
        return fail(c, err)
    }
    req, target, ok, err := bindGrant(c)
    if !ok {
        return err
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    p, err := h.Grants.Revoke(ctx, id, target, req.permission())
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "message": "permission '" + p.Name + "' revoked successfully",
        "success": true,
    })
}
