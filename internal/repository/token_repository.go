package repository

import (
    "context"
    "database/sql"
    "errors"
    "time"

    "github.com/iliyamo/academy-access/internal/model"
)

// TokenRepo persists refresh tokens.  Only the SHA-256 hash of a token is
// stored (single 'token_hash' column); the owner is a user or a coach.
type TokenRepo struct {
    DB  *sql.DB
    now func() time.Time
}

func NewTokenRepo(db *sql.DB) *TokenRepo {
    return &TokenRepo{DB: db, now: func() time.Time { return time.Now().UTC() }}
}

// Store inserts a refresh token hash row for owner.
func (r *TokenRepo) Store(ctx context.Context, owner model.PrincipalRef, tokenHash string, exp time.Time) error {
    if err := owner.Validate(); err != nil {
        return err
    }
    userID, coachID := ownerColumns(owner)
    _, err := r.DB.ExecContext(ctx,
        "INSERT INTO refresh_tokens (token_hash, user_id, coach_id, expires_at) VALUES (?,?,?,?)",
        tokenHash, userID, coachID, exp.UTC())
    return err
}

const selectToken = "SELECT id, token_hash, user_id, coach_id, expires_at, is_revoked, created_at FROM refresh_tokens WHERE token_hash=? LIMIT 1"

// Lookup returns the token if it exists, is not revoked and has not
// expired.  Anything else is ErrNotFound.
func (r *TokenRepo) Lookup(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
    t, err := scanToken(r.DB.QueryRowContext(ctx, selectToken, tokenHash))
    if err != nil {
        return model.RefreshToken{}, err
    }
    if !r.usable(t) {
        return model.RefreshToken{}, ErrNotFound
    }
    return t, nil
}

// Rotate revokes oldHash and stores newHash for the same owner in one
// transaction.  The old row is locked first, so of two concurrent rotations
// of the same token only one succeeds; the other sees a revoked token and
// gets ErrNotFound.
func (r *TokenRepo) Rotate(ctx context.Context, oldHash, newHash string, newExp time.Time) (model.PrincipalRef, error) {
    tx, err := r.DB.BeginTx(ctx, nil)
    if err != nil {
        return model.PrincipalRef{}, err
    }
    defer func() { _ = tx.Rollback() }()

    old, err := scanToken(tx.QueryRowContext(ctx, selectToken+" FOR UPDATE", oldHash))
    if err != nil {
        return model.PrincipalRef{}, err
    }
    if !r.usable(old) {
        return model.PrincipalRef{}, ErrNotFound
    }
    if _, err := tx.ExecContext(ctx, "UPDATE refresh_tokens SET is_revoked=1 WHERE id=?", old.ID); err != nil {
        return model.PrincipalRef{}, err
    }
    userID, coachID := ownerColumns(old.Owner)
    if _, err := tx.ExecContext(ctx,
        "INSERT INTO refresh_tokens (token_hash, user_id, coach_id, expires_at) VALUES (?,?,?,?)",
        newHash, userID, coachID, newExp.UTC()); err != nil {
        return model.PrincipalRef{}, err
    }
    if err := tx.Commit(); err != nil {
        return model.PrincipalRef{}, err
    }
    return old.Owner, nil
}

// RevokeByHash marks a token as revoked.  The result is false when the
// token is unknown or was already revoked.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) (bool, error) {
    res, err := r.DB.ExecContext(ctx,
        "UPDATE refresh_tokens SET is_revoked=1 WHERE token_hash=? AND is_revoked=0",
        tokenHash)
    if err != nil {
        return false, err
    }
    n, err := res.RowsAffected()
    if err != nil {
        return false, err
    }
    return n > 0, nil
}

// RevokeAllFor revokes every active token of owner and returns how many
// were revoked.
func (r *TokenRepo) RevokeAllFor(ctx context.Context, owner model.PrincipalRef) (int64, error) {
    if err := owner.Validate(); err != nil {
        return 0, err
    }
    res, err := r.DB.ExecContext(ctx,
        "UPDATE refresh_tokens SET is_revoked=1 WHERE "+ownerColumn(owner.Kind)+"=? AND is_revoked=0",
        owner.ID)
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}

func (r *TokenRepo) usable(t model.RefreshToken) bool {
    return !t.IsRevoked && r.now().Before(t.ExpiresAt)
}

func scanToken(row rowScanner) (model.RefreshToken, error) {
    var (
        t               model.RefreshToken
        userID, coachID sql.NullInt64
    )
    err := row.Scan(&t.ID, &t.TokenHash, &userID, &coachID, &t.ExpiresAt, &t.IsRevoked, &t.CreatedAt)
    if errors.Is(err, sql.ErrNoRows) {
        return model.RefreshToken{}, ErrNotFound
    }
    if err != nil {
        return model.RefreshToken{}, err
    }
    t.Owner = refFromColumns(userID, coachID)
    return t, nil
}
