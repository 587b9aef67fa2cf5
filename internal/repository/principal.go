package repository

import (
    "context"
    "database/sql"
    "errors"

    "github.com/iliyamo/academy-access/internal/model"
)

// ownerColumns splits a principal ref into the (user_id, coach_id) column
// pair used by tables that point at exactly one principal.  The unused side
// is NULL.
func ownerColumns(ref model.PrincipalRef) (userID, coachID any) {
    if ref.Kind == model.KindCoach {
        return nil, ref.ID
    }
    return ref.ID, nil
}

// ownerColumn is the column holding ids of the ref's kind.
func ownerColumn(kind model.PrincipalKind) string {
    if kind == model.KindCoach {
        return "coach_id"
    }
    return "user_id"
}

// refFromColumns is the inverse of ownerColumns.
func refFromColumns(userID, coachID sql.NullInt64) model.PrincipalRef {
    if coachID.Valid {
        return model.CoachRef(uint64(coachID.Int64))
    }
    return model.UserRef(uint64(userID.Int64))
}

// rowQuerier is satisfied by both *sql.DB and *sql.Tx.
type rowQuerier interface {
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// usernameTaken reports whether the name exists in either principal table.
// Inside a transaction the locking reads also lock the index gap, so a
// concurrent insert of the same name into the other table waits for us.
func usernameTaken(ctx context.Context, q rowQuerier, username string) (bool, error) {
    for _, stmt := range []string{
        "SELECT id FROM users WHERE username = ? LIMIT 1 FOR UPDATE",
        "SELECT id FROM coaches WHERE username = ? LIMIT 1 FOR UPDATE",
    } {
        var id uint64
        err := q.QueryRowContext(ctx, stmt, username).Scan(&id)
        if err == nil {
            return true, nil
        }
        if !errors.Is(err, sql.ErrNoRows) {
            return false, err
        }
    }
    return false, nil
}
