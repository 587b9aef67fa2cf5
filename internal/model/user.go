package model

import (
    "strings"
    "time"
)

// Role is the role column of the users table.  Coaches live in their own
// table and have no role column; they always authorize as RoleCoach.
type Role string

const (
    RoleAdmin Role = "admin"
    RoleUser  Role = "user"
    RoleCoach Role = "coach"
)

// ParseRole normalizes a role string (case and surrounding whitespace are
// ignored).  The boolean is false for anything outside admin/user/coach.
func ParseRole(s string) (Role, bool) {
    switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
    case RoleAdmin, RoleUser, RoleCoach:
        return r, true
    }
    return "", false
}

// User represents an administrative account as stored in the `users`
// table.  A row may carry role=coach as a leftover from the period when
// coaches were synchronized into this table; that value only selects the
// coach base permission set and never turns the row into a Coach principal.
//
// Fields:
//  ID           – primary key identifier of the user.
//  Name         – display name.
//  Username     – unique login name (unique across users and coaches).
//  PasswordHash – bcrypt hashed password.
//  Role         – admin, user or coach.
//  IsActive     – inactive accounts cannot log in or use issued tokens.
//  CreatedAt    – timestamp of creation.
//  UpdatedAt    – timestamp of last update.
type User struct {
    ID           uint64    // users.id
    Name         string    // users.name
    Username     string    // users.username
    PasswordHash string    // users.password_hash
    Role         Role      // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// Coach represents a row in the `coaches` table.  Coaches authenticate on
// the same login endpoint as users but are a separate principal kind.
type Coach struct {
    ID           uint64    // coaches.id
    Name         string    // coaches.name
    Username     string    // coaches.username
    PasswordHash string    // coaches.password_hash
    IsActive     bool      // coaches.is_active
    CreatedAt    time.Time // coaches.created_at
    UpdatedAt    time.Time // coaches.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Each
// refresh token belongs to exactly one principal (user or coach).  The
// plain token is not stored; only its SHA‑256 hash.
//
// Fields:
//  ID        – primary key identifier.
//  Owner     – principal the token was issued to.
//  TokenHash – SHA‑256 hex digest of the token value.
//  ExpiresAt – expiration timestamp of the token.
//  IsRevoked – set on logout and on rotation.
//  CreatedAt – timestamp of creation.
type RefreshToken struct {
    ID        uint64       // refresh_tokens.id
    Owner     PrincipalRef // refresh_tokens.user_id / coach_id
    TokenHash string       // refresh_tokens.token_hash
    ExpiresAt time.Time    // refresh_tokens.expires_at
    IsRevoked bool         // refresh_tokens.is_revoked
    CreatedAt time.Time    // refresh_tokens.created_at
}
