package service

import (
    "context"
    "fmt"
    "strings"
    "unicode/utf8"

    "github.com/iliyamo/academy-access/internal/model"
    "github.com/iliyamo/academy-access/internal/rbac"
    "github.com/iliyamo/academy-access/internal/repository"
    "github.com/iliyamo/academy-access/internal/utils"
)

// NewPrincipal is the input for creating a user or a coach.  Role is
// ignored for coaches.
type NewPrincipal struct {
    Name     string
    Username string
    Password string
    Role     model.Role
}

func (p NewPrincipal) validate() error {
    switch {
    case strings.TrimSpace(p.Name) == "":
        return invariantf("name is required")
    case utf8.RuneCountInString(p.Name) > 100:
        return invariantf("name is longer than 100 characters")
    }
    u := repository.NormalizeUsername(p.Username)
    if n := utf8.RuneCountInString(u); n < 3 || n > 50 {
        return invariantf("username must be 3 to 50 characters")
    }
    return validatePassword(p.Password)
}

func validatePassword(pw string) error {
    if n := len(pw); n < 8 || n > 72 {
        return invariantf("password must be 8 to 72 bytes")
    }
    return nil
}

// ProfileUpdate carries the optional changes of an update.  Nil fields are
// left alone.
type ProfileUpdate struct {
    Name     *string
    Password *string
    IsActive *bool
}

// PrincipalService manages users and coaches on behalf of an authenticated
// actor.  Every operation runs its authorization decision first.
type PrincipalService struct {
    users      UserStore
    coaches    CoachStore
    tokens     *TokenService
    authz      *Authorizer
    audit      *Auditor
    bcryptCost int
}

func NewPrincipalService(users UserStore, coaches CoachStore, tokens *TokenService, authz *Authorizer, audit *Auditor, bcryptCost int) *PrincipalService {
    return &PrincipalService{users: users, coaches: coaches, tokens: tokens, authz: authz, audit: audit, bcryptCost: bcryptCost}
}

// CreateUser creates a users row with in.Role.  The creator must hold the
// create permission for that role.
func (s *PrincipalService) CreateUser(ctx context.Context, creator model.Identity, in NewPrincipal) (model.User, error) {
    role, ok := model.ParseRole(string(in.Role))
    if !ok {
        return model.User{}, invariantf("unknown role %q", in.Role)
    }
    if err := in.validate(); err != nil {
        return model.User{}, err
    }
    if !s.authz.CanCreateRole(ctx, creator, role) {
        perm, _ := rbac.CreatePermissionFor(role)
        return model.User{}, forbiddenf("missing permission %s", perm)
    }
    hash, err := utils.HashPassword(in.Password, s.bcryptCost)
    if err != nil {
        return model.User{}, err
    }
    u := model.User{
        Name:         strings.TrimSpace(in.Name),
        Username:     in.Username,
        PasswordHash: hash,
        Role:         role,
        IsActive:     true,
    }
    if err := s.users.Create(ctx, &u); err != nil {
        return model.User{}, translate(err, "user")
    }
    s.audit.Record(EventPrincipalCreated, u.Username, true, fmt.Sprintf("user role=%s by %s", role, creator.Username()))
    return u, nil
}

// CreateCoach creates a coaches row.  The creator must hold create_coach.
func (s *PrincipalService) CreateCoach(ctx context.Context, creator model.Identity, in NewPrincipal) (model.Coach, error) {
    if err := in.validate(); err != nil {
        return model.Coach{}, err
    }
    if !s.authz.CanCreateRole(ctx, creator, model.RoleCoach) {
        return model.Coach{}, forbiddenf("missing permission %s", rbac.CreateCoach)
    }
    hash, err := utils.HashPassword(in.Password, s.bcryptCost)
    if err != nil {
        return model.Coach{}, err
    }
    c := model.Coach{
        Name:         strings.TrimSpace(in.Name),
        Username:     in.Username,
        PasswordHash: hash,
        IsActive:     true,
    }
    if err := s.coaches.Create(ctx, &c); err != nil {
        return model.Coach{}, translate(err, "coach")
    }
    s.audit.Record(EventPrincipalCreated, c.Username, true, "coach by "+creator.Username())
    return c, nil
}

// Get returns target if actor may view it.
func (s *PrincipalService) Get(ctx context.Context, actor model.Identity, target model.PrincipalRef) (model.Identity, error) {
    if !s.authz.CanAccessUser(ctx, target, actor) {
        return model.Identity{}, forbiddenf("cannot view %s", target)
    }
    return loadIdentity(ctx, s.users, s.coaches, target)
}

// ListUsers pages through the users table.  Requires view_all_users.
func (s *PrincipalService) ListUsers(ctx context.Context, actor model.Identity, limit, offset int) ([]model.User, error) {
    if !s.authz.CanListPrincipals(ctx, actor) {
        return nil, forbiddenf("cannot list users")
    }
    limit, offset = page(limit, offset)
    return s.users.List(ctx, limit, offset)
}

// ListCoaches pages through the coaches table.  Requires view_all_users.
func (s *PrincipalService) ListCoaches(ctx context.Context, actor model.Identity, limit, offset int) ([]model.Coach, error) {
    if !s.authz.CanListPrincipals(ctx, actor) {
        return nil, forbiddenf("cannot list coaches")
    }
    limit, offset = page(limit, offset)
    return s.coaches.List(ctx, limit, offset)
}

func page(limit, offset int) (int, int) {
    if limit <= 0 || limit > 200 {
        limit = 50
    }
    if offset < 0 {
        offset = 0
    }
    return limit, offset
}

// Update applies upd to target.  Changing is_active is an administrative
// action: it needs edit_all_users and never applies to oneself.  Passwords
// are only ever changed by their owner, and editing someone of a higher
// role needs that role's create or delete permission.  Deactivation
// revokes all of target's refresh tokens.
func (s *PrincipalService) Update(ctx context.Context, actor model.Identity, target model.PrincipalRef, upd ProfileUpdate) (model.Identity, error) {
    if !s.authz.CanEditUser(ctx, target, actor) {
        return model.Identity{}, forbiddenf("cannot edit %s", target)
    }
    self := actor.Same(target)
    if upd.IsActive != nil {
        if self {
            return model.Identity{}, ErrSelfAction
        }
        if !s.authz.Can(ctx, actor, rbac.EditAllUsers) {
            return model.Identity{}, forbiddenf("missing permission %s", rbac.EditAllUsers)
        }
    }
    if !self {
        if upd.Password != nil {
            return model.Identity{}, forbiddenf("only %s can change its password", target)
        }
        current, err := loadIdentity(ctx, s.users, s.coaches, target)
        if err != nil {
            return model.Identity{}, err
        }
        if !s.authz.CanAdministerRole(ctx, actor, current.Role()) {
            return model.Identity{}, forbiddenf("cannot edit a principal with role %s", current.Role())
        }
    }
    if upd.Name != nil {
        name := strings.TrimSpace(*upd.Name)
        if name == "" || utf8.RuneCountInString(name) > 100 {
            return model.Identity{}, invariantf("name must be 1 to 100 characters")
        }
        upd.Name = &name
    }
    var hash *string
    if upd.Password != nil {
        if err := validatePassword(*upd.Password); err != nil {
            return model.Identity{}, err
        }
        h, err := utils.HashPassword(*upd.Password, s.bcryptCost)
        if err != nil {
            return model.Identity{}, err
        }
        hash = &h
    }

    var err error
    switch target.Kind {
    case model.KindUser:
        err = s.users.Update(ctx, target.ID, repository.UserUpdate{Name: upd.Name, PasswordHash: hash, IsActive: upd.IsActive})
    case model.KindCoach:
        err = s.coaches.Update(ctx, target.ID, repository.CoachUpdate{Name: upd.Name, PasswordHash: hash, IsActive: upd.IsActive})
    default:
        return model.Identity{}, invariantf("unknown principal kind %q", target.Kind)
    }
    if err != nil {
        return model.Identity{}, translate(err, target.String())
    }
    if upd.IsActive != nil && !*upd.IsActive {
        if _, err := s.tokens.RevokeAll(ctx, target); err != nil {
            return model.Identity{}, fmt.Errorf("revoke tokens of %s: %w", target, err)
        }
    }
    return loadIdentity(ctx, s.users, s.coaches, target)
}

// Delete removes target.  Self-deletion and callers without any delete
// permission are refused before the target is loaded; then the delete
// permission for the target's role is required.
func (s *PrincipalService) Delete(ctx context.Context, actor model.Identity, target model.PrincipalRef) error {
    if actor.Same(target) {
        return ErrSelfAction
    }
    if err := target.Validate(); err != nil {
        return invariantf("%v", err)
    }
    if !s.authz.CanDeleteKind(ctx, actor, target.Kind) {
        return forbiddenf("cannot delete %s", target)
    }
    victim, err := loadIdentity(ctx, s.users, s.coaches, target)
    if err != nil {
        return err
    }
    if err := s.authz.AuthorizeDelete(ctx, actor, victim); err != nil {
        return err
    }
    if target.Kind == model.KindCoach {
        err = s.coaches.Delete(ctx, target.ID)
    } else {
        err = s.users.Delete(ctx, target.ID)
    }
    if err != nil {
        return translate(err, target.String())
    }
    s.audit.Record(EventPrincipalDeleted, victim.Username(), true, fmt.Sprintf("%s by %s", target, actor.Username()))
    return nil
}
