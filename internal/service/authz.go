package service

import (
    "context"

    "go.uber.org/zap"

    "github.com/iliyamo/academy-access/internal/metrics"
    "github.com/iliyamo/academy-access/internal/model"
    "github.com/iliyamo/academy-access/internal/rbac"
)

// PermissionChecker answers "does this principal hold this permission".
type PermissionChecker interface {
    HasPermission(ctx context.Context, id model.Identity, name string) (bool, error)
}

// Authorizer holds the decision functions that gate mutating operations.
// Decisions are plain booleans: a storage failure while resolving
// permissions is logged and treated as a denial.
type Authorizer struct {
    perms   PermissionChecker
    log     *zap.Logger
    metrics *metrics.Metrics
}

func NewAuthorizer(perms PermissionChecker, log *zap.Logger, m *metrics.Metrics) *Authorizer {
    return &Authorizer{perms: perms, log: log, metrics: m}
}

func (a *Authorizer) has(ctx context.Context, id model.Identity, name string) bool {
    ok, err := a.perms.HasPermission(ctx, id, name)
    if err != nil {
        a.log.Error("permission lookup failed; denying",
            zap.String("principal", id.Ref().String()),
            zap.String("permission", name),
            zap.Error(err))
        return false
    }
    return ok
}

func (a *Authorizer) verdict(check string, actor model.Identity, allowed bool) bool {
    a.metrics.Decision(check, allowed)
    if !allowed {
        a.log.Warn("authorization denied",
            zap.String("check", check),
            zap.String("principal", actor.Ref().String()),
            zap.String("username", actor.Username()))
    }
    return allowed
}

// Can reports whether actor holds perm.  Used for gates that have no
// dedicated decision function, such as listing the catalog.
func (a *Authorizer) Can(ctx context.Context, actor model.Identity, perm string) bool {
    return a.verdict("permission:"+perm, actor, a.has(ctx, actor, perm))
}

// CanListPrincipals reports whether actor may page through users and
// coaches.
func (a *Authorizer) CanListPrincipals(ctx context.Context, actor model.Identity) bool {
    return a.verdict("list_principals", actor, a.has(ctx, actor, rbac.ViewAllUsers))
}

// CanCreateRole reports whether creator may create a principal of role.
// Unknown roles are never creatable.
func (a *Authorizer) CanCreateRole(ctx context.Context, creator model.Identity, role model.Role) bool {
    perm, ok := rbac.CreatePermissionFor(role)
    return a.verdict("create_role", creator, ok && a.has(ctx, creator, perm))
}

// CanDeleteUser reports whether deleter holds a permission that allows
// deleting target.  Admins need delete_admin; coaches accept delete_coach
// or delete_user; plain users need delete_user.
func (a *Authorizer) CanDeleteUser(ctx context.Context, deleter, target model.Identity) bool {
    allowed := false
    for _, perm := range rbac.DeletePermissionsFor(target.Role()) {
        if a.has(ctx, deleter, perm) {
            allowed = true
            break
        }
    }
    return a.verdict("delete_principal", deleter, allowed)
}

// roleRank orders roles for administrative edits.  Admins outrank
// everyone else; users and coaches are peers.
func roleRank(r model.Role) int {
    if r == model.RoleAdmin {
        return 2
    }
    return 1
}

// CanAdministerRole reports whether actor may change the account state of
// a principal with role.  Peers and lower roles are always administrable;
// a higher role needs its create permission or one of its delete
// permissions.
func (a *Authorizer) CanAdministerRole(ctx context.Context, actor model.Identity, role model.Role) bool {
    if roleRank(role) <= roleRank(actor.Role()) {
        return a.verdict("administer_role", actor, true)
    }
    perms := rbac.DeletePermissionsFor(role)
    if p, ok := rbac.CreatePermissionFor(role); ok {
        perms = append(perms, p)
    }
    allowed := false
    for _, perm := range perms {
        if a.has(ctx, actor, perm) {
            allowed = true
            break
        }
    }
    return a.verdict("administer_role", actor, allowed)
}

// CanDeleteKind reports whether deleter holds any permission that could
// delete some principal of kind.  It runs before the target is loaded so
// that callers without delete rights cannot tell missing ids from
// existing ones.
func (a *Authorizer) CanDeleteKind(ctx context.Context, deleter model.Identity, kind model.PrincipalKind) bool {
    perms := rbac.DeletePermissionsFor(model.RoleCoach)
    if kind == model.KindUser {
        perms = append(rbac.DeletePermissionsFor(model.RoleUser), rbac.DeletePermissionsFor(model.RoleAdmin)...)
    }
    for _, perm := range perms {
        if a.has(ctx, deleter, perm) {
            return true
        }
    }
    return a.verdict("delete_principal", deleter, false)
}

// CanAccessUser reports whether actor may read target's profile.
func (a *Authorizer) CanAccessUser(ctx context.Context, target model.PrincipalRef, actor model.Identity) bool {
    allowed := a.has(ctx, actor, rbac.ViewAllUsers) ||
        (actor.Same(target) && a.has(ctx, actor, rbac.ViewOwnProfile))
    return a.verdict("access_principal", actor, allowed)
}

// CanEditUser reports whether actor may modify target's profile.
func (a *Authorizer) CanEditUser(ctx context.Context, target model.PrincipalRef, actor model.Identity) bool {
    allowed := a.has(ctx, actor, rbac.EditAllUsers) ||
        (actor.Same(target) && a.has(ctx, actor, rbac.EditOwnProfile))
    return a.verdict("edit_principal", actor, allowed)
}

// CanManagePermissions reports whether manager may change target's grants.
// Only admin users holding assign_permissions qualify, and never for
// themselves.
func (a *Authorizer) CanManagePermissions(ctx context.Context, manager model.Identity, target model.PrincipalRef) bool {
    allowed := false
    if u, ok := manager.User(); ok && !manager.Same(target) && u.Role == model.RoleAdmin {
        allowed = a.has(ctx, manager, rbac.AssignPermissions)
    }
    return a.verdict("manage_permissions", manager, allowed)
}

// AuthorizeDelete guards deletions.  Deleting oneself is refused before
// any permission is looked up.
func (a *Authorizer) AuthorizeDelete(ctx context.Context, deleter, target model.Identity) error {
    if deleter.Same(target.Ref()) {
        a.verdict("delete_self", deleter, false)
        return ErrSelfAction
    }
    if !a.CanDeleteUser(ctx, deleter, target) {
        needed := rbac.DeletePermissionsFor(target.Role())
        if len(needed) == 0 {
            return forbiddenf("%s cannot be deleted", target.Ref())
        }
        return forbiddenf("missing permission %s", needed[0])
    }
    return nil
}
