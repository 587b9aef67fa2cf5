package service

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "go.uber.org/zap"

    "github.com/iliyamo/academy-access/internal/model"
    "github.com/iliyamo/academy-access/internal/repository"
    "github.com/iliyamo/academy-access/internal/utils"
)

// InitialAdmin is the account created on first start.
type InitialAdmin struct {
    Name     string
    Username string
    Password string
}

// Bootstrap seeds the permission catalog and creates the initial admin
// when its username is free.  It is safe to run on every start.
func Bootstrap(ctx context.Context, perms *PermissionService, users UserStore, admin InitialAdmin, bcryptCost int, log *zap.Logger) error {
    if err := perms.SeedCatalog(ctx); err != nil {
        return fmt.Errorf("seed permission catalog: %w", err)
    }
    log.Info("permission catalog seeded")

    username := repository.NormalizeUsername(admin.Username)
    if username == "" || admin.Password == "" {
        log.Info("initial admin not configured")
        return nil
    }
    if _, err := users.GetByUsername(ctx, username); err == nil {
        return nil
    } else if !errors.Is(err, repository.ErrNotFound) {
        return fmt.Errorf("look up initial admin: %w", err)
    }

    hash, err := utils.HashPassword(admin.Password, bcryptCost)
    if err != nil {
        return err
    }
    name := strings.TrimSpace(admin.Name)
    if name == "" {
        name = "Administrator"
    }
    u := model.User{Name: name, Username: username, PasswordHash: hash, Role: model.RoleAdmin, IsActive: true}
    switch err := users.Create(ctx, &u); {
    case errors.Is(err, repository.ErrDuplicateUsername):
        log.Warn("initial admin username is taken by another principal", zap.String("username", username))
        return nil
    case err != nil:
        return fmt.Errorf("create initial admin: %w", err)
    }
    log.Info("initial admin created", zap.String("username", username), zap.Uint64("id", u.ID))
    return nil
}
