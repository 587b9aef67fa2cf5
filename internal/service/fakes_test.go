package service

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/iliyamo/academy-access/internal/model"
    "github.com/iliyamo/academy-access/internal/repository"
)

// memDB is an in-memory stand-in for the MySQL stores.  It mirrors the
// constraints the schema enforces: one username namespace across users and
// coaches, unique (principal, permission) grants and cascading deletes.
type memDB struct {
    mu      sync.Mutex
    users   map[uint64]model.User
    coaches map[uint64]model.Coach
    perms   map[uint64]model.Permission
    grants  map[grantKey]model.PermissionAssignment
    tokens  map[string]*model.RefreshToken
    seq     uint64
    now     func() time.Time

    failNames error // returned by NamesFor when set
}

type grantKey struct {
    target model.PrincipalRef
    perm   uint64
}

func newMemDB() *memDB {
    return &memDB{
        users:   map[uint64]model.User{},
        coaches: map[uint64]model.Coach{},
        perms:   map[uint64]model.Permission{},
        grants:  map[grantKey]model.PermissionAssignment{},
        tokens:  map[string]*model.RefreshToken{},
        now:     func() time.Time { return time.Now().UTC() },
    }
}

func (m *memDB) next() uint64 { m.seq++; return m.seq }

func (m *memDB) takenLocked(username string) bool {
    for _, u := range m.users {
        if u.Username == username {
            return true
        }
    }
    for _, c := range m.coaches {
        if c.Username == username {
            return true
        }
    }
    return false
}

func (m *memDB) dropPrincipalLocked(ref model.PrincipalRef) {
    for k := range m.grants {
        if k.target == ref {
            delete(m.grants, k)
        }
    }
    for h, t := range m.tokens {
        if t.Owner == ref {
            delete(m.tokens, h)
        }
    }
}

// users

type memUsers struct{ *memDB }

func (s memUsers) Create(_ context.Context, u *model.User) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    u.Username = repository.NormalizeUsername(u.Username)
    if s.takenLocked(u.Username) {
        return repository.ErrDuplicateUsername
    }
    u.ID = s.next()
    u.CreatedAt, u.UpdatedAt = s.now(), s.now()
    s.users[u.ID] = *u
    return nil
}

func (s memUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    u, ok := s.users[id]
    if !ok {
        return model.User{}, repository.ErrNotFound
    }
    return u, nil
}

func (s memUsers) GetByUsername(_ context.Context, username string) (model.User, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, u := range s.users {
        if u.Username == username {
            return u, nil
        }
    }
    return model.User{}, repository.ErrNotFound
}

func (s memUsers) List(_ context.Context, limit, offset int) ([]model.User, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []model.User
    for _, u := range s.users {
        out = append(out, u)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    if offset >= len(out) {
        return nil, nil
    }
    out = out[offset:]
    if len(out) > limit {
        out = out[:limit]
    }
    return out, nil
}

func (s memUsers) Update(_ context.Context, id uint64, upd repository.UserUpdate) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    u, ok := s.users[id]
    if !ok {
        return repository.ErrNotFound
    }
    if upd.Name != nil {
        u.Name = *upd.Name
    }
    if upd.PasswordHash != nil {
        u.PasswordHash = *upd.PasswordHash
    }
    if upd.IsActive != nil {
        u.IsActive = *upd.IsActive
    }
    s.users[id] = u
    return nil
}

func (s memUsers) Delete(_ context.Context, id uint64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.users[id]; !ok {
        return repository.ErrNotFound
    }
    delete(s.users, id)
    s.dropPrincipalLocked(model.UserRef(id))
    return nil
}

// coaches

type memCoaches struct{ *memDB }

func (s memCoaches) Create(_ context.Context, c *model.Coach) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    c.Username = repository.NormalizeUsername(c.Username)
    if s.takenLocked(c.Username) {
        return repository.ErrDuplicateUsername
    }
    c.ID = s.next()
    c.CreatedAt, c.UpdatedAt = s.now(), s.now()
    s.coaches[c.ID] = *c
    return nil
}

func (s memCoaches) GetByID(_ context.Context, id uint64) (model.Coach, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    c, ok := s.coaches[id]
    if !ok {
        return model.Coach{}, repository.ErrNotFound
    }
    return c, nil
}

func (s memCoaches) GetByUsername(_ context.Context, username string) (model.Coach, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, c := range s.coaches {
        if c.Username == username {
            return c, nil
        }
    }
    return model.Coach{}, repository.ErrNotFound
}

func (s memCoaches) List(_ context.Context, limit, offset int) ([]model.Coach, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []model.Coach
    for _, c := range s.coaches {
        out = append(out, c)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
    if offset >= len(out) {
        return nil, nil
    }
    out = out[offset:]
    if len(out) > limit {
        out = out[:limit]
    }
    return out, nil
}

func (s memCoaches) Update(_ context.Context, id uint64, upd repository.CoachUpdate) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    c, ok := s.coaches[id]
    if !ok {
        return repository.ErrNotFound
    }
    if upd.Name != nil {
        c.Name = *upd.Name
    }
    if upd.PasswordHash != nil {
        c.PasswordHash = *upd.PasswordHash
    }
    if upd.IsActive != nil {
        c.IsActive = *upd.IsActive
    }
    s.coaches[id] = c
    return nil
}

func (s memCoaches) Delete(_ context.Context, id uint64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.coaches[id]; !ok {
        return repository.ErrNotFound
    }
    delete(s.coaches, id)
    s.dropPrincipalLocked(model.CoachRef(id))
    return nil
}

// permissions

type memPerms struct{ *memDB }

func (s memPerms) ensureLocked(name, desc string) model.Permission {
    for _, p := range s.perms {
        if p.Name == name {
            return p
        }
    }
    p := model.Permission{ID: s.next(), Name: name, Description: desc, CreatedAt: s.now(), UpdatedAt: s.now()}
    s.perms[p.ID] = p
    return p
}

func (s memPerms) Seed(_ context.Context, names []string, describe func(string) string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, n := range names {
        s.ensureLocked(n, describe(n))
    }
    return nil
}

func (s memPerms) Ensure(_ context.Context, name, description string) (model.Permission, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    return s.ensureLocked(name, description), nil
}

func (s memPerms) GetByID(_ context.Context, id uint64) (model.Permission, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    p, ok := s.perms[id]
    if !ok {
        return model.Permission{}, repository.ErrNotFound
    }
    return p, nil
}

func (s memPerms) GetByName(_ context.Context, name string) (model.Permission, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, p := range s.perms {
        if p.Name == name {
            return p, nil
        }
    }
    return model.Permission{}, repository.ErrNotFound
}

func (s memPerms) List(_ context.Context) ([]model.Permission, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []model.Permission
    for _, p := range s.perms {
        out = append(out, p)
    }
    sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
    return out, nil
}

// assignments

type memAssigns struct{ *memDB }

func (s memAssigns) existsLocked(ref model.PrincipalRef) bool {
    if ref.Kind == model.KindCoach {
        _, ok := s.coaches[ref.ID]
        return ok
    }
    _, ok := s.users[ref.ID]
    return ok
}

func (s memAssigns) Assign(_ context.Context, target model.PrincipalRef, permissionID uint64, assignedBy *uint64) (model.PermissionAssignment, error) {
    if err := target.Validate(); err != nil {
        return model.PermissionAssignment{}, err
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    p, ok := s.perms[permissionID]
    if !ok || !s.existsLocked(target) {
        return model.PermissionAssignment{}, repository.ErrNotFound
    }
    k := grantKey{target, permissionID}
    if _, dup := s.grants[k]; dup {
        return model.PermissionAssignment{}, repository.ErrConflict
    }
    a := model.PermissionAssignment{ID: s.next(), Target: target, PermissionID: permissionID, PermissionName: p.Name, AssignedBy: assignedBy, AssignedAt: s.now()}
    s.grants[k] = a
    return a, nil
}

func (s memAssigns) Revoke(_ context.Context, target model.PrincipalRef, permissionID uint64) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    k := grantKey{target, permissionID}
    if _, ok := s.grants[k]; !ok {
        return repository.ErrNotFound
    }
    delete(s.grants, k)
    return nil
}

func (s memAssigns) NamesFor(_ context.Context, target model.PrincipalRef) ([]string, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.failNames != nil {
        return nil, s.failNames
    }
    var out []string
    for k, a := range s.grants {
        if k.target == target {
            out = append(out, a.PermissionName)
        }
    }
    return out, nil
}

func (s memAssigns) ListFor(_ context.Context, target model.PrincipalRef) ([]model.PermissionAssignment, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []model.PermissionAssignment
    for k, a := range s.grants {
        if k.target == target {
            out = append(out, a)
        }
    }
    sort.Slice(out, func(i, j int) bool { return out[i].PermissionName < out[j].PermissionName })
    return out, nil
}

func (s *memDB) grantCount(target model.PrincipalRef) int {
    s.mu.Lock()
    defer s.mu.Unlock()
    n := 0
    for k := range s.grants {
        if k.target == target {
            n++
        }
    }
    return n
}

// refresh tokens

type memTokens struct{ *memDB }

func (s memTokens) Store(_ context.Context, owner model.PrincipalRef, tokenHash string, exp time.Time) error {
    if err := owner.Validate(); err != nil {
        return err
    }
    s.mu.Lock()
    defer s.mu.Unlock()
    s.tokens[tokenHash] = &model.RefreshToken{ID: s.next(), Owner: owner, TokenHash: tokenHash, ExpiresAt: exp, CreatedAt: s.now()}
    return nil
}

func (s memTokens) usableLocked(hash string) (*model.RefreshToken, bool) {
    t, ok := s.tokens[hash]
    if !ok || t.IsRevoked || !s.now().Before(t.ExpiresAt) {
        return nil, false
    }
    return t, true
}

func (s memTokens) Lookup(_ context.Context, tokenHash string) (model.RefreshToken, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    t, ok := s.usableLocked(tokenHash)
    if !ok {
        return model.RefreshToken{}, repository.ErrNotFound
    }
    return *t, nil
}

func (s memTokens) Rotate(_ context.Context, oldHash, newHash string, newExp time.Time) (model.PrincipalRef, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    t, ok := s.usableLocked(oldHash)
    if !ok {
        return model.PrincipalRef{}, repository.ErrNotFound
    }
    t.IsRevoked = true
    s.tokens[newHash] = &model.RefreshToken{ID: s.next(), Owner: t.Owner, TokenHash: newHash, ExpiresAt: newExp, CreatedAt: s.now()}
    return t.Owner, nil
}

func (s memTokens) RevokeByHash(_ context.Context, tokenHash string) (bool, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    t, ok := s.tokens[tokenHash]
    if !ok || t.IsRevoked {
        return false, nil
    }
    t.IsRevoked = true
    return true, nil
}

func (s memTokens) RevokeAllFor(_ context.Context, owner model.PrincipalRef) (int64, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var n int64
    for _, t := range s.tokens {
        if t.Owner == owner && !t.IsRevoked {
            t.IsRevoked = true
            n++
        }
    }
    return n, nil
}
