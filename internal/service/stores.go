package service

import (
    "context"
    "errors"
    "fmt"
    "time"

    "github.com/iliyamo/academy-access/internal/model"
    "github.com/iliyamo/academy-access/internal/repository"
)

// The services depend on these narrow views of the repositories so tests
// can substitute in-memory stores.

type UserStore interface {
    Create(ctx context.Context, u *model.User) error
    GetByID(ctx context.Context, id uint64) (model.User, error)
    GetByUsername(ctx context.Context, username string) (model.User, error)
    List(ctx context.Context, limit, offset int) ([]model.User, error)
    Update(ctx context.Context, id uint64, upd repository.UserUpdate) error
    Delete(ctx context.Context, id uint64) error
}

type CoachStore interface {
    Create(ctx context.Context, c *model.Coach) error
    GetByID(ctx context.Context, id uint64) (model.Coach, error)
    GetByUsername(ctx context.Context, username string) (model.Coach, error)
    List(ctx context.Context, limit, offset int) ([]model.Coach, error)
    Update(ctx context.Context, id uint64, upd repository.CoachUpdate) error
    Delete(ctx context.Context, id uint64) error
}

type PermissionStore interface {
    Seed(ctx context.Context, names []string, describe func(string) string) error
    Ensure(ctx context.Context, name, description string) (model.Permission, error)
    GetByID(ctx context.Context, id uint64) (model.Permission, error)
    GetByName(ctx context.Context, name string) (model.Permission, error)
    List(ctx context.Context) ([]model.Permission, error)
}

type AssignmentStore interface {
    Assign(ctx context.Context, target model.PrincipalRef, permissionID uint64, assignedBy *uint64) (model.PermissionAssignment, error)
    Revoke(ctx context.Context, target model.PrincipalRef, permissionID uint64) error
    NamesFor(ctx context.Context, target model.PrincipalRef) ([]string, error)
    ListFor(ctx context.Context, target model.PrincipalRef) ([]model.PermissionAssignment, error)
}

type TokenStore interface {
    Store(ctx context.Context, owner model.PrincipalRef, tokenHash string, exp time.Time) error
    Lookup(ctx context.Context, tokenHash string) (model.RefreshToken, error)
    Rotate(ctx context.Context, oldHash, newHash string, newExp time.Time) (model.PrincipalRef, error)
    RevokeByHash(ctx context.Context, tokenHash string) (bool, error)
    RevokeAllFor(ctx context.Context, owner model.PrincipalRef) (int64, error)
}

// translate maps repository sentinels onto service sentinels, keeping the
// message as context.  Other errors pass through unchanged.
func translate(err error, what string) error {
    switch {
    case err == nil:
        return nil
    case errors.Is(err, repository.ErrNotFound):
        return fmt.Errorf("%w: %s", ErrNotFound, what)
    case errors.Is(err, repository.ErrDuplicateUsername):
        return fmt.Errorf("%w: %s", ErrConflict, err.Error())
    case errors.Is(err, repository.ErrConflict):
        return fmt.Errorf("%w: %s", ErrConflict, what)
    }
    return err
}
