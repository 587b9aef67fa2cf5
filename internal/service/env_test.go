package service

import (
    "sync"
    "testing"
    "time"

    "github.com/stretchr/testify/require"
    "go.uber.org/zap"

    "github.com/iliyamo/academy-access/internal/model"
    "github.com/iliyamo/academy-access/internal/utils"
)

const testPassword = "correct-horse"

var testHash = sync.OnceValue(func() string {
    h, err := utils.HashPassword(testPassword, 4)
    if err != nil {
        panic(err)
    }
    return h
})

// env wires every service over one memDB.
type env struct {
    db         *memDB
    users      memUsers
    coaches    memCoaches
    signer     *utils.TokenSigner
    tokens     *TokenService
    perms      *PermissionService
    authz      *Authorizer
    audit      *Auditor
    auth       *AuthService
    principals *PrincipalService
    grants     *GrantService
}

func newEnv(t *testing.T) *env {
    t.Helper()
    db := newMemDB()
    signer, err := utils.NewTokenSigner("unit-test-secret", "HS256", 15*time.Minute)
    require.NoError(t, err)

    e := &env{db: db, users: memUsers{db}, coaches: memCoaches{db}, signer: signer}
    log := zap.NewNop()
    e.audit = NewAuditor(log, nil, 0)
    e.tokens = NewTokenService(signer, memTokens{db}, 7)
    e.perms = NewPermissionService(memPerms{db}, memAssigns{db})
    require.NoError(t, e.perms.SeedCatalog(t.Context()))
    e.authz = NewAuthorizer(e.perms, log, nil)
    e.auth = NewAuthService(e.users, e.coaches, e.tokens, e.audit, 4, nil, log)
    e.principals = NewPrincipalService(e.users, e.coaches, e.tokens, e.authz, e.audit, 4)
    e.grants = NewGrantService(e.perms, e.authz, e.audit, e.users, e.coaches)
    return e
}

func (e *env) addUser(t *testing.T, username string, role model.Role) model.Identity {
    t.Helper()
    u := model.User{Name: username, Username: username, PasswordHash: testHash(), Role: role, IsActive: true}
    require.NoError(t, e.users.Create(t.Context(), &u))
    return model.UserIdentity(u)
}

func (e *env) addCoach(t *testing.T, username string) model.Identity {
    t.Helper()
    c := model.Coach{Name: username, Username: username, PasswordHash: testHash(), IsActive: true}
    require.NoError(t, e.coaches.Create(t.Context(), &c))
    return model.CoachIdentity(c)
}

// grant assigns name to target directly, bypassing authorization.
func (e *env) grant(t *testing.T, target model.PrincipalRef, name string) {
    t.Helper()
    p, err := e.perms.Lookup(t.Context(), PermissionRef{Name: name}, true)
    require.NoError(t, err)
    _, err = e.perms.Assign(t.Context(), target, p, model.Identity{})
    require.NoError(t, err)
}
