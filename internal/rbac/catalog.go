// Package rbac holds the static half of the permission model: the known
// permission names, the base permission set of every user role and the
// role-keyed create/delete permission tables.  Everything here is read-only
// after process start; the dynamic half (explicit assignments) lives in the
// database and is resolved by service.PermissionService.
package rbac

import (
    "sort"

    "github.com/iliyamo/academy-access/internal/model"
)

// Permission names.  Comparison is case-sensitive.
const (
    CreateUser        = "create_user"
    CreateCoach       = "create_coach"
    CreateAdmin       = "create_admin"
    DeleteUser        = "delete_user"
    DeleteCoach       = "delete_coach"
    DeleteAdmin       = "delete_admin"
    ViewAllUsers      = "view_all_users"
    EditAllUsers      = "edit_all_users"
    ViewOwnProfile    = "view_own_profile"
    EditOwnProfile    = "edit_own_profile"
    AssignPermissions = "assign_permissions"
    RevokePermissions = "revoke_permissions"
    ViewPermissions   = "view_permissions"
)

var known = []string{
    CreateUser, CreateCoach, CreateAdmin,
    DeleteUser, DeleteCoach, DeleteAdmin,
    ViewAllUsers, EditAllUsers,
    ViewOwnProfile, EditOwnProfile,
    AssignPermissions, RevokePermissions, ViewPermissions,
}

var descriptions = map[string]string{
    CreateUser:        "Create users with role user",
    CreateCoach:       "Create coaches",
    CreateAdmin:       "Create users with role admin",
    DeleteUser:        "Delete users with role user",
    DeleteCoach:       "Delete coaches",
    DeleteAdmin:       "Delete users with role admin",
    ViewAllUsers:      "View any user or coach profile",
    EditAllUsers:      "Edit any user or coach profile",
    ViewOwnProfile:    "View own profile",
    EditOwnProfile:    "Edit own profile",
    AssignPermissions: "Assign permissions to other principals",
    RevokePermissions: "Revoke permissions from other principals",
    ViewPermissions:   "List the permission catalog and grants",
}

var baseSets = map[model.Role][]string{
    model.RoleAdmin: {
        CreateUser, CreateCoach, CreateAdmin,
        DeleteUser, DeleteCoach, DeleteAdmin,
        ViewAllUsers, EditAllUsers,
        AssignPermissions, RevokePermissions, ViewPermissions,
        ViewOwnProfile, EditOwnProfile,
    },
    model.RoleUser:  {ViewOwnProfile, EditOwnProfile},
    model.RoleCoach: {ViewOwnProfile, EditOwnProfile},
}

var createTable = map[model.Role]string{
    model.RoleAdmin: CreateAdmin,
    model.RoleCoach: CreateCoach,
    model.RoleUser:  CreateUser,
}

// delete_user also covers coaches: holders of the generic user-deletion
// grant may remove coaches, never admins.
var deleteTable = map[model.Role][]string{
    model.RoleAdmin: {DeleteAdmin},
    model.RoleCoach: {DeleteCoach, DeleteUser},
    model.RoleUser:  {DeleteUser},
}

// Known returns every permission name seeded at startup, sorted.
func Known() []string {
    out := append([]string(nil), known...)
    sort.Strings(out)
    return out
}

// IsKnown reports whether name is part of the seeded catalog.
func IsKnown(name string) bool {
    _, ok := descriptions[name]
    return ok
}

// Description returns the catalog description for name, falling back to a
// generic one for names registered at runtime.
func Description(name string) string {
    if d, ok := descriptions[name]; ok {
        return d
    }
    return "Permission: " + name
}

// BasePermissions returns a copy of the base set for a user role.  Unknown
// roles get nothing.
func BasePermissions(role model.Role) []string {
    return append([]string(nil), baseSets[role]...)
}

// CreatePermissionFor maps the role of a principal about to be created to
// the permission its creator must hold.
func CreatePermissionFor(role model.Role) (string, bool) {
    p, ok := createTable[role]
    return p, ok
}

// DeletePermissionsFor lists the permissions that each, on its own, allow
// deleting a principal of the given role.  The first entry is the specific
// one and is what error messages should name.
func DeletePermissionsFor(role model.Role) []string {
    return append([]string(nil), deleteTable[role]...)
}
