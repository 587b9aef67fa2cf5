package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/iliyamo/academy-access/internal/model"
)

const userColumns = "id, name, username, password_hash, role, is_active, created_at, updated_at"

// UserRepo reads and writes the users table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// UserUpdate lists the mutable columns of a user.  Nil fields are left
// untouched.
type UserUpdate struct {
    Name         *string
    PasswordHash *string
    IsActive     *bool
}

func (u UserUpdate) empty() bool {
    return u.Name == nil && u.PasswordHash == nil && u.IsActive == nil
}

// NormalizeUsername trims surrounding whitespace.  Case is preserved and
// significant: the username columns use a binary collation.
func NormalizeUsername(s string) string { return strings.TrimSpace(s) }

// Create inserts u and fills in its id and timestamps.  The username must be
// free in both the users and the coaches table, otherwise
// ErrDuplicateUsername is returned.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
    u.Username = NormalizeUsername(u.Username)
    tx, err := r.DB.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() { _ = tx.Rollback() }()

    taken, err := usernameTaken(ctx, tx, u.Username)
    if err != nil {
        return err
    }
    if taken {
        return ErrDuplicateUsername
    }
    res, err := tx.ExecContext(ctx,
        "INSERT INTO users (name, username, password_hash, role, is_active) VALUES (?,?,?,?,?)",
        u.Name, u.Username, u.PasswordHash, string(u.Role), u.IsActive)
    if err != nil {
        if isDuplicateKey(err) {
            return ErrDuplicateUsername
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    created, err := scanUser(tx.QueryRowContext(ctx,
        "SELECT "+userColumns+" FROM users WHERE id=?", id))
    if err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    *u = created
    return nil
}

// GetByID fetches a user by id.  Unknown ids give ErrNotFound.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
    return scanUser(r.DB.QueryRowContext(ctx,
        "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByUsername fetches a user by exact username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (model.User, error) {
    return scanUser(r.DB.QueryRowContext(ctx,
        "SELECT "+userColumns+" FROM users WHERE username=? LIMIT 1", NormalizeUsername(username)))
}

// List returns users ordered by id.
func (r *UserRepo) List(ctx context.Context, limit, offset int) ([]model.User, error) {
    rows, err := r.DB.QueryContext(ctx,
        "SELECT "+userColumns+" FROM users ORDER BY id LIMIT ? OFFSET ?", limit, offset)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []model.User
    for rows.Next() {
        u, err := scanUser(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, u)
    }
    return out, rows.Err()
}

// Update applies the non-nil fields of upd.  It returns ErrNotFound when no
// user has the id.
func (r *UserRepo) Update(ctx context.Context, id uint64, upd UserUpdate) error {
    if upd.empty() {
        _, err := r.GetByID(ctx, id)
        return err
    }
    set, args := upd.assignments()
    args = append(args, id)
    res, err := r.DB.ExecContext(ctx, "UPDATE users SET "+set+" WHERE id=?", args...)
    if err != nil {
        return err
    }
    return expectRow(res)
}

func (u UserUpdate) assignments() (string, []any) {
    var cols []string
    var args []any
    if u.Name != nil {
        cols = append(cols, "name=?")
        args = append(args, *u.Name)
    }
    if u.PasswordHash != nil {
        cols = append(cols, "password_hash=?")
        args = append(args, *u.PasswordHash)
    }
    if u.IsActive != nil {
        cols = append(cols, "is_active=?")
        args = append(args, *u.IsActive)
    }
    return strings.Join(cols, ", "), args
}

// Delete removes the user.  Assignments and refresh tokens go with it
// through ON DELETE CASCADE.
func (r *UserRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
    if err != nil {
        return err
    }
    return expectRow(res)
}

// UsernameTaken reports whether a user or a coach already uses username.
func (r *UserRepo) UsernameTaken(ctx context.Context, username string) (bool, error) {
    return usernameTaken(ctx, r.DB, NormalizeUsername(username))
}

type rowScanner interface {
    Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
    var (
        u    model.User
        role string
    )
    err := row.Scan(&u.ID, &u.Name, &u.Username, &u.PasswordHash, &role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.User{}, ErrNotFound
    }
    if err != nil {
        return model.User{}, err
    }
    u.Role = model.Role(role)
    return u, nil
}

// expectRow maps "no row matched" to ErrNotFound.
func expectRow(res sql.Result) error {
    n, err := res.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrNotFound
    }
    return nil
}
