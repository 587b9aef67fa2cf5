package service

import (
    "context"
    "fmt"

    "github.com/iliyamo/academy-access/internal/model"
    "github.com/iliyamo/academy-access/internal/rbac"
)

// GrantService exposes the permission catalog and explicit grants to
// authenticated actors.
type GrantService struct {
    perms   *PermissionService
    authz   *Authorizer
    audit   *Auditor
    users   UserStore
    coaches CoachStore
}

func NewGrantService(perms *PermissionService, authz *Authorizer, audit *Auditor, users UserStore, coaches CoachStore) *GrantService {
    return &GrantService{perms: perms, authz: authz, audit: audit, users: users, coaches: coaches}
}

// authorizeManage runs the checks shared by assign and revoke: the
// operation permission, then the manage decision.
func (s *GrantService) authorizeManage(ctx context.Context, manager model.Identity, target model.PrincipalRef, perm string) error {
    if err := target.Validate(); err != nil {
        return invariantf("%v", err)
    }
    if manager.Same(target) {
        return fmt.Errorf("%w: cannot manage your own permissions", ErrForbidden)
    }
    if !s.authz.Can(ctx, manager, perm) {
        return forbiddenf("missing permission %s", perm)
    }
    if !s.authz.CanManagePermissions(ctx, manager, target) {
        return forbiddenf("you do not have permission to manage this principal's permissions")
    }
    return nil
}

// Assign grants the referenced permission to target.  Names are registered
// on first use, and only once target is known to exist.
func (s *GrantService) Assign(ctx context.Context, manager model.Identity, target model.PrincipalRef, ref PermissionRef) (model.PermissionAssignment, error) {
    if err := s.authorizeManage(ctx, manager, target, rbac.AssignPermissions); err != nil {
        return model.PermissionAssignment{}, err
    }
    if _, err := loadIdentity(ctx, s.users, s.coaches, target); err != nil {
        return model.PermissionAssignment{}, err
    }
    perm, err := s.perms.Lookup(ctx, ref, true)
    if err != nil {
        return model.PermissionAssignment{}, err
    }
    a, err := s.perms.Assign(ctx, target, perm, manager)
    if err != nil {
        s.audit.Record(EventPermissionAssigned, manager.Username(), false, err.Error())
        return model.PermissionAssignment{}, err
    }
    s.audit.Record(EventPermissionAssigned, manager.Username(), true, fmt.Sprintf("%s -> %s", perm.Name, target))
    return a, nil
}

// Revoke removes the referenced permission from target.
func (s *GrantService) Revoke(ctx context.Context, manager model.Identity, target model.PrincipalRef, ref PermissionRef) (model.Permission, error) {
    if err := s.authorizeManage(ctx, manager, target, rbac.RevokePermissions); err != nil {
        return model.Permission{}, err
    }
    perm, err := s.perms.Lookup(ctx, ref, false)
    if err != nil {
        return model.Permission{}, err
    }
    if err := s.perms.Revoke(ctx, target, perm); err != nil {
        s.audit.Record(EventPermissionRevoked, manager.Username(), false, err.Error())
        return model.Permission{}, err
    }
    s.audit.Record(EventPermissionRevoked, manager.Username(), true, fmt.Sprintf("%s -> %s", perm.Name, target))
    return perm, nil
}

// Catalog lists every registered permission.  Requires view_permissions.
func (s *GrantService) Catalog(ctx context.Context, actor model.Identity) ([]model.Permission, error) {
    if !s.authz.Can(ctx, actor, rbac.ViewPermissions) {
        return nil, forbiddenf("missing permission %s", rbac.ViewPermissions)
    }
    return s.perms.Catalog(ctx)
}

// PrincipalPermissions is the effective and explicit permission view of one
// principal.
type PrincipalPermissions struct {
    Principal   model.Identity
    Effective   []string
    Assignments []model.PermissionAssignment
}

// For returns target's permissions.  Requires view_permissions; principals
// may always inspect their own.
func (s *GrantService) For(ctx context.Context, actor model.Identity, target model.PrincipalRef) (PrincipalPermissions, error) {
    if !actor.Same(target) && !s.authz.Can(ctx, actor, rbac.ViewPermissions) {
        return PrincipalPermissions{}, forbiddenf("missing permission %s", rbac.ViewPermissions)
    }
    id, err := loadIdentity(ctx, s.users, s.coaches, target)
    if err != nil {
        return PrincipalPermissions{}, err
    }
    eff, err := s.perms.Permissions(ctx, id)
    if err != nil {
        return PrincipalPermissions{}, err
    }
    grants, err := s.perms.Grants(ctx, target)
    if err != nil {
        return PrincipalPermissions{}, err
    }
    return PrincipalPermissions{Principal: id, Effective: eff, Assignments: grants}, nil
}
