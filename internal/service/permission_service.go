package service

import (
    "context"
    "errors"
    "fmt"
    "regexp"
    "sort"

    "github.com/iliyamo/academy-access/internal/model"
    "github.com/iliyamo/academy-access/internal/rbac"
    "github.com/iliyamo/academy-access/internal/repository"
)

var permissionNameRe = regexp.MustCompile(`^[a-z][a-z0-9_]{1,99}$`)

// PermissionService resolves effective permissions: the base set of a
// user's role unioned with the principal's explicit assignments.  Nothing
// is cached; every call reads the assignment store.
type PermissionService struct {
    perms   PermissionStore
    assigns AssignmentStore
}

func NewPermissionService(perms PermissionStore, assigns AssignmentStore) *PermissionService {
    return &PermissionService{perms: perms, assigns: assigns}
}

// Permissions returns the effective permission names of id, deduplicated
// and sorted byte-wise.  Coaches have no base set.
func (s *PermissionService) Permissions(ctx context.Context, id model.Identity) ([]string, error) {
    if !id.Kind().Valid() {
        return nil, invariantf("permissions of an empty identity")
    }
    var base []string
    if u, ok := id.User(); ok {
        base = rbac.BasePermissions(u.Role)
    }
    explicit, err := s.assigns.NamesFor(ctx, id.Ref())
    if err != nil {
        return nil, fmt.Errorf("load assignments of %s: %w", id.Ref(), err)
    }

    set := make(map[string]struct{}, len(base)+len(explicit))
    for _, p := range base {
        set[p] = struct{}{}
    }
    for _, p := range explicit {
        set[p] = struct{}{}
    }
    out := make([]string, 0, len(set))
    for p := range set {
        out = append(out, p)
    }
    sort.Strings(out)
    return out, nil
}

// HasPermission reports whether name is among id's effective permissions.
// Names are compared case-sensitively.
func (s *PermissionService) HasPermission(ctx context.Context, id model.Identity, name string) (bool, error) {
    perms, err := s.Permissions(ctx, id)
    if err != nil {
        return false, err
    }
    i := sort.SearchStrings(perms, name)
    return i < len(perms) && perms[i] == name, nil
}

// SeedCatalog registers every known permission.  Safe to run on each start.
func (s *PermissionService) SeedCatalog(ctx context.Context) error {
    return s.perms.Seed(ctx, rbac.Known(), rbac.Description)
}

// Catalog lists all registered permissions.
func (s *PermissionService) Catalog(ctx context.Context) ([]model.Permission, error) {
    return s.perms.List(ctx)
}

// Grants lists the explicit assignments of target.
func (s *PermissionService) Grants(ctx context.Context, target model.PrincipalRef) ([]model.PermissionAssignment, error) {
    if err := target.Validate(); err != nil {
        return nil, invariantf("%v", err)
    }
    return s.assigns.ListFor(ctx, target)
}

// PermissionRef names a permission either by id or by name.  Exactly one
// must be set.
type PermissionRef struct {
    ID   uint64
    Name string
}

// Lookup resolves ref.  With create set, an unknown but well-formed name is
// registered (get-or-create); ids must always exist.
func (s *PermissionService) Lookup(ctx context.Context, ref PermissionRef, create bool) (model.Permission, error) {
    switch {
    case ref.ID != 0 && ref.Name != "":
        return model.Permission{}, invariantf("give either permission_id or permission, not both")
    case ref.ID != 0:
        p, err := s.perms.GetByID(ctx, ref.ID)
        return p, translate(err, fmt.Sprintf("permission %d", ref.ID))
    case ref.Name == "":
        return model.Permission{}, invariantf("permission_id or permission is required")
    case !permissionNameRe.MatchString(ref.Name):
        return model.Permission{}, invariantf("malformed permission name %q", ref.Name)
    case create:
        return s.perms.Ensure(ctx, ref.Name, rbac.Description(ref.Name))
    }
    p, err := s.perms.GetByName(ctx, ref.Name)
    return p, translate(err, fmt.Sprintf("permission %q", ref.Name))
}

// Assign grants perm to target.  A second grant of the same pair fails with
// ErrConflict; the store's unique key decides races.
func (s *PermissionService) Assign(ctx context.Context, target model.PrincipalRef, perm model.Permission, by model.Identity) (model.PermissionAssignment, error) {
    if err := target.Validate(); err != nil {
        return model.PermissionAssignment{}, invariantf("%v", err)
    }
    var assignedBy *uint64
    if u, ok := by.User(); ok {
        assignedBy = &u.ID
    }
    a, err := s.assigns.Assign(ctx, target, perm.ID, assignedBy)
    if errors.Is(err, repository.ErrConflict) {
        return model.PermissionAssignment{}, fmt.Errorf("%w: %s already holds %q", ErrConflict, target, perm.Name)
    }
    if err != nil {
        return model.PermissionAssignment{}, translate(err, fmt.Sprintf("%s or permission %q", target, perm.Name))
    }
    if a.PermissionName == "" {
        a.PermissionName = perm.Name
    }
    return a, nil
}

// Revoke removes the grant.  ErrNotFound when target did not hold it.
func (s *PermissionService) Revoke(ctx context.Context, target model.PrincipalRef, perm model.Permission) error {
    if err := target.Validate(); err != nil {
        return invariantf("%v", err)
    }
    err := s.assigns.Revoke(ctx, target, perm.ID)
    return translate(err, fmt.Sprintf("%s does not hold %q", target, perm.Name))
}
