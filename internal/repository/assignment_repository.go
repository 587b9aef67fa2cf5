package repository

import (
    "context"
    "database/sql"
    "fmt"

    "github.com/iliyamo/academy-access/internal/model"
)

// AssignmentRepo stores explicit permission grants.  Each row targets
// exactly one user or one coach; the unique keys make a second grant of the
// same permission fail instead of adding a row.
type AssignmentRepo struct{ DB *sql.DB }

func NewAssignmentRepo(db *sql.DB) *AssignmentRepo { return &AssignmentRepo{DB: db} }

// Assign grants permissionID to target.  It returns ErrConflict when the
// grant already exists and ErrNotFound when the principal or the permission
// does not exist.  Concurrent callers race on the unique key, so exactly one
// of them succeeds.
func (r *AssignmentRepo) Assign(ctx context.Context, target model.PrincipalRef, permissionID uint64, assignedBy *uint64) (model.PermissionAssignment, error) {
    if err := target.Validate(); err != nil {
        return model.PermissionAssignment{}, err
    }
    userID, coachID := ownerColumns(target)
    res, err := r.DB.ExecContext(ctx,
        "INSERT INTO permission_assignments (user_id, coach_id, permission_id, assigned_by) VALUES (?,?,?,?)",
        userID, coachID, permissionID, assignedBy)
    switch {
    case isDuplicateKey(err):
        return model.PermissionAssignment{}, ErrConflict
    case isMissingReference(err):
        return model.PermissionAssignment{}, ErrNotFound
    case err != nil:
        return model.PermissionAssignment{}, err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return model.PermissionAssignment{}, err
    }

    a := model.PermissionAssignment{ID: uint64(id), Target: target, PermissionID: permissionID, AssignedBy: assignedBy}
    err = r.DB.QueryRowContext(ctx,
        `SELECT p.permission_name, a.assigned_at
           FROM permission_assignments a JOIN permissions p ON p.id = a.permission_id
          WHERE a.id = ?`, id).Scan(&a.PermissionName, &a.AssignedAt)
    if err != nil {
        return model.PermissionAssignment{}, err
    }
    return a, nil
}

// Revoke deletes the grant.  ErrNotFound means there was nothing to revoke.
func (r *AssignmentRepo) Revoke(ctx context.Context, target model.PrincipalRef, permissionID uint64) error {
    if err := target.Validate(); err != nil {
        return err
    }
    q := fmt.Sprintf("DELETE FROM permission_assignments WHERE %s=? AND permission_id=?", ownerColumn(target.Kind))
    res, err := r.DB.ExecContext(ctx, q, target.ID, permissionID)
    if err != nil {
        return err
    }
    return expectRow(res)
}

// NamesFor returns the names of the permissions explicitly granted to
// target, in no particular order.
func (r *AssignmentRepo) NamesFor(ctx context.Context, target model.PrincipalRef) ([]string, error) {
    q := fmt.Sprintf(`SELECT p.permission_name
  FROM permission_assignments a JOIN permissions p ON p.id = a.permission_id
 WHERE a.%s = ?`, ownerColumn(target.Kind))
    rows, err := r.DB.QueryContext(ctx, q, target.ID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var names []string
    for rows.Next() {
        var n string
        if err := rows.Scan(&n); err != nil {
            return nil, err
        }
        names = append(names, n)
    }
    return names, rows.Err()
}

// ListFor returns the grants of target with permission names joined in,
// ordered by name.
func (r *AssignmentRepo) ListFor(ctx context.Context, target model.PrincipalRef) ([]model.PermissionAssignment, error) {
    q := fmt.Sprintf(`SELECT a.id, a.permission_id, p.permission_name, a.assigned_by, a.assigned_at
  FROM permission_assignments a JOIN permissions p ON p.id = a.permission_id
 WHERE a.%s = ?
 ORDER BY p.permission_name`, ownerColumn(target.Kind))
    rows, err := r.DB.QueryContext(ctx, q, target.ID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []model.PermissionAssignment
    for rows.Next() {
        var (
            a  = model.PermissionAssignment{Target: target}
            by sql.NullInt64
        )
        if err := rows.Scan(&a.ID, &a.PermissionID, &a.PermissionName, &by, &a.AssignedAt); err != nil {
            return nil, err
        }
        if by.Valid {
            v := uint64(by.Int64)
            a.AssignedBy = &v
        }
        out = append(out, a)
    }
    return out, rows.Err()
}
