package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/academy-access/internal/model"
)

const coachColumns = "id, name, username, password_hash, is_active, created_at, updated_at"

// CoachRepo reads and writes the coaches table.  Coaches share the login
// namespace with users, so Create checks both tables.
type CoachRepo struct{ DB *sql.DB }

func NewCoachRepo(db *sql.DB) *CoachRepo { return &CoachRepo{DB: db} }

// CoachUpdate lists the mutable columns of a coach.
type CoachUpdate struct {
    Name         *string
    PasswordHash *string
    IsActive     *bool
}

func (r *CoachRepo) Create(ctx context.Context, c *model.Coach) error {
    c.Username = NormalizeUsername(c.Username)
    tx, err := r.DB.BeginTx(ctx, nil)
    if err != nil {
        return err
    }
    defer func() { _ = tx.Rollback() }()

    taken, err := usernameTaken(ctx, tx, c.Username)
    if err != nil {
        return err
    }
    if taken {
        return ErrDuplicateUsername
    }
    res, err := tx.ExecContext(ctx,
        "INSERT INTO coaches (name, username, password_hash, is_active) VALUES (?,?,?,?)",
        c.Name, c.Username, c.PasswordHash, c.IsActive)
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
    created, err := scanCoach(tx.QueryRowContext(ctx,
        "SELECT "+coachColumns+" FROM coaches WHERE id=?", id))
    if err != nil {
        return err
    }
    if err := tx.Commit(); err != nil {
        return err
    }
    *c = created
    return nil
}

func (r *CoachRepo) GetByID(ctx context.Context, id uint64) (model.Coach, error) {
    return scanCoach(r.DB.QueryRowContext(ctx,
        "SELECT "+coachColumns+" FROM coaches WHERE id=? LIMIT 1", id))
}

func (r *CoachRepo) GetByUsername(ctx context.Context, username string) (model.Coach, error) {
    return scanCoach(r.DB.QueryRowContext(ctx,
        "SELECT "+coachColumns+" FROM coaches WHERE username=? LIMIT 1", NormalizeUsername(username)))
}

func (r *CoachRepo) List(ctx context.Context, limit, offset int) ([]model.Coach, error) {
    rows, err := r.DB.QueryContext(ctx,
        "SELECT "+coachColumns+" FROM coaches ORDER BY id LIMIT ? OFFSET ?", limit, offset)
    if err != nil {
        return nil, err
    }
    defer rows.Close()

    var out []model.Coach
    for rows.Next() {
        c, err := scanCoach(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, c)
    }
    return out, rows.Err()
}

func (r *CoachRepo) Update(ctx context.Context, id uint64, upd CoachUpdate) error {
    set, args := UserUpdate(upd).assignments()
    if set == "" {
        _, err := r.GetByID(ctx, id)
        return err
    }
    args = append(args, id)
    res, err := r.DB.ExecContext(ctx, "UPDATE coaches SET "+set+" WHERE id=?", args...)
    if err != nil {
        return err
    }
    return expectRow(res)
}

func (r *CoachRepo) Delete(ctx context.Context, id uint64) error {
    res, err := r.DB.ExecContext(ctx, "DELETE FROM coaches WHERE id=?", id)
    if err != nil {
        return err
    }
    return expectRow(res)
}

func scanCoach(row rowScanner) (model.Coach, error) {
    var c model.Coach
    err := row.Scan(&c.ID, &c.Name, &c.Username, &c.PasswordHash, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.Coach{}, ErrNotFound
    }
    if err != nil {
        return model.Coach{}, err
    }
    return c, nil
}
