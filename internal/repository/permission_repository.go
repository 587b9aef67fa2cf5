package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/academy-access/internal/model"
)

const permissionColumns = "id, permission_name, COALESCE(description, ''), created_at, updated_at"

// PermissionRepo manages the permission catalog.  Names are unique; an id
// never changes once a name is registered.
type PermissionRepo struct{ DB *sql.DB }

func NewPermissionRepo(db *sql.DB) *PermissionRepo { return &PermissionRepo{DB: db} }

// upsertPermission inserts the name or leaves the existing row alone.  The
// no-op update keeps concurrent callers from failing on the unique key.
const upsertPermission = `INSERT INTO permissions (permission_name, description) VALUES (?, ?)
ON DUPLICATE KEY UPDATE id = id`

// Seed registers every name.  describe supplies the description stored for
// new rows; existing descriptions are kept.
func (r *PermissionRepo) Seed(ctx context.Context, names []string, describe func(string) string) error {
    tx, err := r.DB.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() { _ = tx.Rollback() }()

    stmt, err := tx.PrepareContext(ctx, upsertPermission)
    if err != nil {
        return err
    }
    defer stmt.Close()

    for _, n := range names {
        if _, err := stmt.ExecContext(ctx, n, describe(n)); err != nil {
            return err
        }
    }
    return tx.Commit()
}

// Ensure returns the permission called name, creating it when missing.
func (r *PermissionRepo) Ensure(ctx context.Context, name, description string) (model.Permission, error) {
    if _, err := r.DB.ExecContext(ctx, upsertPermission, name, description); err != nil {
        return model.Permission{}, err
    }
    return r.GetByName(ctx, name)
}

func (r *PermissionRepo) GetByID(ctx context.Context, id uint64) (model.Permission, error) {
    return scanPermission(r.DB.QueryRowContext(ctx,
        "SELECT "+permissionColumns+" FROM permissions WHERE id=? LIMIT 1", id))
}

func (r *PermissionRepo) GetByName(ctx context.Context, name string) (model.Permission, error) {
    return scanPermission(r.DB.QueryRowContext(ctx,
        "SELECT "+permissionColumns+" FROM permissions WHERE permission_name=? LIMIT 1", name))
}

// List returns the whole catalog ordered by name.
func (r *PermissionRepo) List(ctx context.Context) ([]model.Permission, error) {
    rows, err := r.DB.QueryContext(ctx,
        "SELECT "+permissionColumns+" FROM permissions ORDER BY permission_name")
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []model.Permission
    for rows.Next() {
        p, err := scanPermission(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, p)
    }
    return out, rows.Err()
}

func scanPermission(row rowScanner) (model.Permission, error) {
    var p model.Permission
    err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CreatedAt, &p.UpdatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Permission{}, ErrNotFound
    }
    return p, err
}
