package service

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"
    "golang.org/x/crypto/bcrypt"

    "github.com/iliyamo/academy-access/internal/model"
    "github.com/iliyamo/academy-access/internal/repository"
)

func TestLoginUserAndCoach(t *testing.T) {
    e := newEnv(t)
    u := e.addUser(t, "alice", model.RoleUser)
    c := e.addCoach(t, "kim")

    sess, err := e.auth.Login(t.Context(), " alice ", testPassword)
    require.NoError(t, err)
    assert.Equal(t, model.KindUser, sess.Identity.Kind())
    assert.Equal(t, u.ID(), sess.Identity.ID())
    assert.NotEmpty(t, sess.Access.Token)
    assert.NotEmpty(t, sess.Refresh.Raw)

    claims, err := e.tokens.DecodeToken(sess.Access.Token)
    require.NoError(t, err)
    assert.Equal(t, model.KindUser, claims.SubjectType)
    assert.Equal(t, "user", claims.Role)

    sess, err = e.auth.Login(t.Context(), "kim", testPassword)
    require.NoError(t, err)
    assert.Equal(t, model.KindCoach, sess.Identity.Kind())
    assert.Equal(t, c.ID(), sess.Identity.ID())
    claims, err = e.tokens.DecodeToken(sess.Access.Token)
    require.NoError(t, err)
    assert.Equal(t, model.KindCoach, claims.SubjectType)
    assert.Equal(t, c.ID(), *claims.CoachID)
}

func TestLoginFailures(t *testing.T) {
    e := newEnv(t)
    e.addUser(t, "alice", model.RoleUser)
    inactive := e.addCoach(t, "gone")
    off := false
    require.NoError(t, e.coaches.Update(t.Context(), inactive.ID(), repository.CoachUpdate{IsActive: &off}))

    for name, creds := range map[string][2]string{
        "wrong password": {"alice", "nope-nope"},
        "unknown user":   {"bob", testPassword},
        "inactive coach": {"gone", testPassword},
        "empty":          {"", ""},
    } {
        _, err := e.auth.Login(t.Context(), creds[0], creds[1])
        assert.ErrorIs(t, err, ErrUnauthenticated, name)
    }
}

func TestUnknownUsernameHashUsesConfiguredCost(t *testing.T) {
    e := newEnv(t)
    cost, err := bcrypt.Cost([]byte(e.auth.dummyHash))
    require.NoError(t, err)
    assert.Equal(t, 4, cost)

    svc := NewAuthService(e.users, e.coaches, e.tokens, e.audit, 6, nil, zap.NewNop())
    cost, err = bcrypt.Cost([]byte(svc.dummyHash))
    require.NoError(t, err)
    assert.Equal(t, 6, cost)

    _, err = svc.Login(t.Context(), "nobody", "whatever-password")
    assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestResolveIdentity(t *testing.T) {
    e := newEnv(t)
    u := e.addUser(t, "alice", model.RoleUser)
    c := e.addCoach(t, "kim")
    ctx := t.Context()

    tok, err := e.tokens.CreateAccessToken(u)
    require.NoError(t, err)
    id, err := e.auth.ResolveIdentity(ctx, tok.Token)
    require.NoError(t, err)
    assert.True(t, id.Same(u.Ref()))

    tok, err = e.tokens.CreateAccessToken(c)
    require.NoError(t, err)
    id, err = e.auth.ResolveIdentity(ctx, tok.Token)
    require.NoError(t, err)
    assert.Equal(t, model.KindCoach, id.Kind())
    assert.Equal(t, c.ID(), id.ID())

    _, err = e.auth.ResolveIdentity(ctx, "")
    assert.ErrorIs(t, err, ErrUnauthenticated)
    _, err = e.auth.ResolveIdentity(ctx, "garbage")
    assert.ErrorIs(t, err, ErrUnauthenticated)
}

func signRaw(t *testing.T, claims jwt.MapClaims) string {
    t.Helper()
    claims["type"] = "access"
    claims["iat"] = time.Now().Unix()
    claims["exp"] = time.Now().Add(time.Minute).Unix()
    s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("unit-test-secret"))
    require.NoError(t, err)
    return s
}

func TestResolveIdentityRejectsBadSubjects(t *testing.T) {
    e := newEnv(t)
    u := e.addUser(t, "alice", model.RoleUser)
    ctx := t.Context()

    for name, claims := range map[string]jwt.MapClaims{
        "unknown subject type": {"sub": "alice", "subject_type": "admin", "user_id": u.ID()},
        "user without user_id": {"sub": "alice", "subject_type": "user", "coach_id": 1},
        "coach without id":     {"sub": "kim", "subject_type": "coach"},
        "missing principal":    {"sub": "ghost", "subject_type": "user", "user_id": 999},
        "user id as coach":     {"sub": "alice", "subject_type": "coach", "coach_id": u.ID()},
    } {
        _, err := e.auth.ResolveIdentity(ctx, signRaw(t, claims))
        assert.ErrorIs(t, err, ErrUnauthenticated, name)
    }
}

func TestResolveIdentityInactiveIsForbidden(t *testing.T) {
    e := newEnv(t)
    u := e.addUser(t, "alice", model.RoleUser)
    tok, err := e.tokens.CreateAccessToken(u)
    require.NoError(t, err)

    off := false
    require.NoError(t, e.users.Update(t.Context(), u.ID(), repository.UserUpdate{IsActive: &off}))
    _, err = e.auth.ResolveIdentity(t.Context(), tok.Token)
    assert.ErrorIs(t, err, ErrForbidden)
    assert.NotErrorIs(t, err, ErrUnauthenticated)
}

func TestCurrentUser(t *testing.T) {
    e := newEnv(t)
    u := e.addUser(t, "alice", model.RoleUser)
    c := e.addCoach(t, "kim")

    got, err := CurrentUser(u)
    require.NoError(t, err)
    assert.Equal(t, "alice", got.Username)

    _, err = CurrentUser(c)
    assert.ErrorIs(t, err, ErrForbidden)
    assert.ErrorContains(t, err, "user credentials required")
}

func TestRefreshFlow(t *testing.T) {
    e := newEnv(t)
    e.addCoach(t, "kim")
    sess, err := e.auth.Login(t.Context(), "kim", testPassword)
    require.NoError(t, err)

    next, err := e.auth.Refresh(t.Context(), sess.Refresh.Raw)
    require.NoError(t, err)
    assert.Equal(t, model.KindCoach, next.Identity.Kind())
    assert.NotEqual(t, sess.Refresh.Raw, next.Refresh.Raw)

    _, err = e.auth.Refresh(t.Context(), sess.Refresh.Raw)
    assert.ErrorIs(t, err, ErrUnauthenticated)

    _, err = e.auth.Refresh(t.Context(), next.Refresh.Raw)
    require.NoError(t, err)
}

func TestRefreshRejectsDeactivatedPrincipal(t *testing.T) {
    e := newEnv(t)
    u := e.addUser(t, "alice", model.RoleUser)
    sess, err := e.auth.Login(t.Context(), "alice", testPassword)
    require.NoError(t, err)

    off := false
    require.NoError(t, e.users.Update(t.Context(), u.ID(), repository.UserUpdate{IsActive: &off}))
    _, err = e.auth.Refresh(t.Context(), sess.Refresh.Raw)
    assert.ErrorIs(t, err, ErrForbidden)

    _, err = e.auth.Refresh(t.Context(), "")
    assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestLogoutTwice(t *testing.T) {
    e := newEnv(t)
    e.addUser(t, "alice", model.RoleUser)
    sess, err := e.auth.Login(t.Context(), "alice", testPassword)
    require.NoError(t, err)

    revoked, err := e.auth.Logout(t.Context(), sess.Identity, sess.Refresh.Raw)
    require.NoError(t, err)
    assert.True(t, revoked)

    revoked, err = e.auth.Logout(t.Context(), sess.Identity, sess.Refresh.Raw)
    require.NoError(t, err)
    assert.False(t, revoked)

    _, err = e.auth.Refresh(t.Context(), sess.Refresh.Raw)
    assert.ErrorIs(t, err, ErrUnauthenticated)
}
