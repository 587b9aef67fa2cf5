package model

import "time"

// Permission is a row of the `permissions` catalog.  Names are the semantic
// key; ids are stable once a name is registered.
type Permission struct {
    ID          uint64    // permissions.id
    Name        string    // permissions.permission_name
    Description string    // permissions.description
    CreatedAt   time.Time // permissions.created_at
    UpdatedAt   time.Time // permissions.updated_at
}

// PermissionAssignment is an explicit grant of one permission to one
// principal, layered on top of the role base set.  Rows are inserted by
// assign and deleted by revoke; they are never updated in place.
type PermissionAssignment struct {
    ID             uint64       // permission_assignments.id
    Target         PrincipalRef // permission_assignments.user_id / coach_id
    PermissionID   uint64       // permission_assignments.permission_id
    PermissionName string       // joined from permissions.permission_name
    AssignedBy     *uint64      // permission_assignments.assigned_by (nullable)
    AssignedAt     time.Time    // permission_assignments.assigned_at
}
