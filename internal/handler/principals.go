package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/academy-access/internal/model"
    "github.com/iliyamo/academy-access/internal/service"
)

// PrincipalManager is implemented by service.PrincipalService.
type PrincipalManager interface {
    CreateUser(ctx context.Context, creator model.Identity, in service.NewPrincipal) (model.User, error)
    CreateCoach(ctx context.Context, creator model.Identity, in service.NewPrincipal) (model.Coach, error)
    Get(ctx context.Context, actor model.Identity, target model.PrincipalRef) (model.Identity, error)
    ListUsers(ctx context.Context, actor model.Identity, limit, offset int) ([]model.User, error)
    ListCoaches(ctx context.Context, actor model.Identity, limit, offset int) ([]model.Coach, error)
    Update(ctx context.Context, actor model.Identity, target model.PrincipalRef, upd service.ProfileUpdate) (model.Identity, error)
    Delete(ctx context.Context, actor model.Identity, target model.PrincipalRef) error
}

// PrincipalHandler serves /v1/users and /v1/coaches.  The two collections
// share handlers; the principal kind is fixed when routes are registered.
type PrincipalHandler struct {
    Principals PrincipalManager
}

func NewPrincipalHandler(p PrincipalManager) *PrincipalHandler {
    return &PrincipalHandler{Principals: p}
}

type createPrincipalReq struct {
    Name     string `json:"name" form:"name"`
    Username string `json:"username" form:"username"`
    Password string `json:"password" form:"password"`
    Role     string `json:"role" form:"role"`
}

type updatePrincipalReq struct {
    Name     *string `json:"name" form:"name"`
    Password *string `json:"password" form:"password"`
    IsActive *bool   `json:"is_active" form:"is_active"`
}

// CreateUser handles POST /v1/users.  Role defaults to "user".
func (h *PrincipalHandler) CreateUser(c echo.Context) error {
    id, err := actor(c)
    if err != nil {
        return fail(c, err)
    }
    var req createPrincipalReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    if req.Role == "" {
        req.Role = string(model.RoleUser)
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    u, err := h.Principals.CreateUser(ctx, id, service.NewPrincipal{
        Name: req.Name, Username: req.Username, Password: req.Password, Role: model.Role(req.Role),
    })
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, newUserView(u))
}

// CreateCoach handles POST /v1/coaches.
func (h *PrincipalHandler) CreateCoach(c echo.Context) error {
    id, err := actor(c)
    if err != nil {
        return fail(c, err)
    }
    var req createPrincipalReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    co, err := h.Principals.CreateCoach(ctx, id, service.NewPrincipal{
        Name: req.Name, Username: req.Username, Password: req.Password,
    })
    if err != nil {
        return fail(c, err)
    }
    return c.JSON(http.StatusCreated, newCoachView(co))
}

// ListUsers handles GET /v1/users?limit=&offset=.
func (h *PrincipalHandler) ListUsers(c echo.Context) error {
    id, err := actor(c)
    if err != nil {
        return fail(c, err)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    users, err := h.Principals.ListUsers(ctx, id, queryInt(c, "limit"), queryInt(c, "offset"))
    if err != nil {
        return fail(c, err)
    }
    out := make([]userView, 0, len(users))
    for _, u := range users {
        out = append(out, newUserView(u))
    }
    return c.JSON(http.StatusOK, echo.Map{"users": out, "total": len(out)})
}

// ListCoaches handles GET /v1/coaches?limit=&offset=.
func (h *PrincipalHandler) ListCoaches(c echo.Context) error {
    id, err := actor(c)
    if err != nil {
        return fail(c, err)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    coaches, err := h.Principals.ListCoaches(ctx, id, queryInt(c, "limit"), queryInt(c, "offset"))
    if err != nil {
        return fail(c, err)
    }
    out := make([]coachView, 0, len(coaches))
    for _, co := range coaches {
        out = append(out, newCoachView(co))
    }
    return c.JSON(http.StatusOK, echo.Map{"coaches": out, "total": len(out)})
}

// Get returns GET /v1/users/:id or /v1/coaches/:id for kind.
func (h *PrincipalHandler) Get(kind model.PrincipalKind) echo.HandlerFunc {
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

        p, err := h.Principals.Get(ctx, id, target)
        if err != nil {
            return fail(c, err)
        }
        return c.JSON(http.StatusOK, principalBody(p))
    }
}

// Update returns PUT /v1/users/:id or /v1/coaches/:id for kind.
func (h *PrincipalHandler) Update(kind model.PrincipalKind) echo.HandlerFunc {
    return func(c echo.Context) error {
        id, err := actor(c)
        if err != nil {
            return fail(c, err)
        }
        target, ok := pathRef(c, kind)
        if !ok {
            return badRequest(c, "invalid id")
        }
        var req updatePrincipalReq
        if err := c.Bind(&req); err != nil {
            return badRequest(c, "invalid body")
        }
        ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
        defer cancel()

        p, err := h.Principals.Update(ctx, id, target, service.ProfileUpdate{
            Name: req.Name, Password: req.Password, IsActive: req.IsActive,
        })
        if err != nil {
            return fail(c, err)
        }
        return c.JSON(http.StatusOK, principalBody(p))
    }
}

// Delete returns DELETE /v1/users/:id or /v1/coaches/:id for kind.
func (h *PrincipalHandler) Delete(kind model.PrincipalKind) echo.HandlerFunc {
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

        if err := h.Principals.Delete(ctx, id, target); err != nil {
            return fail(c, err)
        }
        return c.NoContent(http.StatusNoContent)
    }
}

// principalBody renders the bare user or coach object.
func principalBody(id model.Identity) any {
    if u, ok := id.User(); ok {
        return newUserView(u)
    }
    co, _ := id.Coach()
    return newCoachView(co)
}
