package handler

import (
    "time"

    "github.com/iliyamo/academy-access/internal/model"
    "github.com/iliyamo/academy-access/internal/service"
)

type userView struct {
    ID        uint64    `json:"id"`
    Name      string    `json:"name"`
    Username  string    `json:"username"`
    Role      string    `json:"role"`
    IsActive  bool      `json:"is_active"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

type coachView struct {
    ID        uint64    `json:"id"`
    Name      string    `json:"name"`
    Username  string    `json:"username"`
    IsActive  bool      `json:"is_active"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

func newUserView(u model.User) userView {
    return userView{ID: u.ID, Name: u.Name, Username: u.Username, Role: string(u.Role), IsActive: u.IsActive, CreatedAt: u.CreatedAt, UpdatedAt: u.UpdatedAt}
}

func newCoachView(c model.Coach) coachView {
    return coachView{ID: c.ID, Name: c.Name, Username: c.Username, IsActive: c.IsActive, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
}

// principalView is the discriminated form of an Identity: user_type tells
// which of User/Coach is set.
type principalView struct {
    UserType string     `json:"user_type"`
    User     *userView  `json:"user,omitempty"`
    Coach    *coachView `json:"coach,omitempty"`
}

func newPrincipalView(id model.Identity) principalView {
    v := principalView{UserType: string(id.Kind())}
    if u, ok := id.User(); ok {
        uv := newUserView(u)
        v.User = &uv
    }
    if c, ok := id.Coach(); ok {
        cv := newCoachView(c)
        v.Coach = &cv
    }
    return v
}

type sessionView struct {
    principalView
    AccessToken      string    `json:"access_token"`
    AccessExpiresAt  time.Time `json:"access_expires_at"`
    RefreshToken     string    `json:"refresh_token"`
    RefreshExpiresAt time.Time `json:"refresh_expires_at"`
    TokenType        string    `json:"token_type"`
}

func newSessionView(s service.Session) sessionView {
    return sessionView{
        principalView:    newPrincipalView(s.Identity),
        AccessToken:      s.Access.Token,
        AccessExpiresAt:  s.Access.Exp,
        RefreshToken:     s.Refresh.Raw,
        RefreshExpiresAt: s.Refresh.Exp,
        TokenType:        "bearer",
    }
}

type permissionView struct {
    ID          uint64 `json:"id"`
    Name        string `json:"name"`
    Description string `json:"description,omitempty"`
}

type assignmentView struct {
    ID         uint64    `json:"id"`
    Permission string    `json:"permission"`
    AssignedBy *uint64   `json:"assigned_by"`
    AssignedAt time.Time `json:"assigned_at"`
}

type principalPermissionsView struct {
    principalView
    Role        string           `json:"role"`
    Permissions []string         `json:"permissions"`
    Assignments []assignmentView `json:"assignments"`
}

func newPrincipalPermissionsView(p service.PrincipalPermissions) principalPermissionsView {
    v := principalPermissionsView{
        principalView: newPrincipalView(p.Principal),
        Role:          string(p.Principal.Role()),
        Permissions:   p.Effective,
        Assignments:   make([]assignmentView, 0, len(p.Assignments)),
    }
    if v.Permissions == nil {
        v.Permissions = []string{}
    }
    for _, a := range p.Assignments {
        v.Assignments = append(v.Assignments, assignmentView{ID: a.ID, Permission: a.PermissionName, AssignedBy: a.AssignedBy, AssignedAt: a.AssignedAt})
    }
    return v
}
