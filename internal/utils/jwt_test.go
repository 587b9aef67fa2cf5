package utils

import (
    "testing"
    "time"

    "github.com/golang-jwt/jwt/v5"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/academy-access/internal/model"
)

func newSigner(t *testing.T) *TokenSigner {
    t.Helper()
    s, err := NewTokenSigner("test-secret", "HS256", 30*time.Minute)
    require.NoError(t, err)
    return s
}

func TestNewTokenSignerValidation(t *testing.T) {
    _, err := NewTokenSigner("", "HS256", time.Minute)
    assert.Error(t, err)
    _, err = NewTokenSigner("x", "HS256", 0)
    assert.Error(t, err)
    _, err = NewTokenSigner("x", "RS256", time.Minute)
    assert.Error(t, err)
    _, err = NewTokenSigner("x", "none", time.Minute)
    assert.Error(t, err)
    s, err := NewTokenSigner("x", "HS512", time.Minute)
    require.NoError(t, err)
    assert.Equal(t, time.Minute, s.TTL())
}

func TestSignParseRoundTripUser(t *testing.T) {
    s := newSigner(t)
    id := model.UserIdentity(model.User{ID: 42, Username: "alice", Role: model.RoleAdmin, IsActive: true})

    tok, err := s.Sign(id)
    require.NoError(t, err)
    assert.WithinDuration(t, time.Now().Add(30*time.Minute), tok.Exp, 5*time.Second)

    claims, err := s.Parse(tok.Token)
    require.NoError(t, err)
    assert.Equal(t, model.KindUser, claims.SubjectType)
    assert.Equal(t, "alice", claims.Subject)
    require.NotNil(t, claims.UserID)
    assert.Equal(t, uint64(42), *claims.UserID)
    assert.Nil(t, claims.CoachID)
    assert.Equal(t, "admin", claims.Role)
    assert.Equal(t, TokenTypeAccess, claims.Type)
    require.NotNil(t, claims.IssuedAt)
    require.NotNil(t, claims.ExpiresAt)
}

func TestSignParseRoundTripCoach(t *testing.T) {
    s := newSigner(t)
    id := model.CoachIdentity(model.Coach{ID: 7, Username: "coach.kim", IsActive: true})

    tok, err := s.Sign(id)
    require.NoError(t, err)
    claims, err := s.Parse(tok.Token)
    require.NoError(t, err)
    assert.Equal(t, model.KindCoach, claims.SubjectType)
    require.NotNil(t, claims.CoachID)
    assert.Equal(t, uint64(7), *claims.CoachID)
    assert.Nil(t, claims.UserID)
    assert.Empty(t, claims.Role)
}

func TestSignRejectsZeroIdentity(t *testing.T) {
    _, err := newSigner(t).Sign(model.Identity{})
    assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
    s := newSigner(t)
    past := s.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
    tok, err := past.Sign(model.UserIdentity(model.User{ID: 1, Username: "u", Role: model.RoleUser}))
    require.NoError(t, err)

    _, err = s.Parse(tok.Token)
    require.ErrorIs(t, err, ErrInvalidToken)
    assert.ErrorContains(t, err, "expired")
}

func TestParseRejectsForeignSignatures(t *testing.T) {
    s := newSigner(t)
    id := model.UserIdentity(model.User{ID: 1, Username: "u", Role: model.RoleUser})

    other, err := NewTokenSigner("other-secret", "HS256", time.Minute)
    require.NoError(t, err)
    tok, err := other.Sign(id)
    require.NoError(t, err)
    _, err = s.Parse(tok.Token)
    assert.ErrorIs(t, err, ErrInvalidToken)

    // same secret, different algorithm
    hs384, err := NewTokenSigner("test-secret", "HS384", time.Minute)
    require.NoError(t, err)
    tok, err = hs384.Sign(id)
    require.NoError(t, err)
    _, err = s.Parse(tok.Token)
    assert.ErrorIs(t, err, ErrInvalidToken)

    unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
        "sub": "u", "subject_type": "user", "user_id": 1, "type": "access",
        "exp": time.Now().Add(time.Hour).Unix(),
    }).SignedString(jwt.UnsafeAllowNoneSignatureType)
    require.NoError(t, err)
    _, err = s.Parse(unsigned)
    assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestParseRejectsMalformedAndWrongType(t *testing.T) {
    s := newSigner(t)
    for _, raw := range []string{"", "abc", "a.b.c"} {
        _, err := s.Parse(raw)
        assert.ErrorIs(t, err, ErrInvalidToken, raw)
    }

    refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
        "sub": "u", "subject_type": "user", "user_id": 1, "type": "refresh",
        "iat": time.Now().Unix(), "exp": time.Now().Add(time.Hour).Unix(),
    }).SignedString([]byte("test-secret"))
    require.NoError(t, err)
    _, err = s.Parse(refresh)
    assert.ErrorIs(t, err, ErrInvalidToken)

    noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
        "sub": "u", "subject_type": "user", "user_id": 1, "type": "access",
    }).SignedString([]byte("test-secret"))
    require.NoError(t, err)
    _, err = s.Parse(noExp)
    assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRefreshTokenGeneration(t *testing.T) {
    a, err := NewRefreshToken(7)
    require.NoError(t, err)
    b, err := NewRefreshToken(7)
    require.NoError(t, err)

    assert.Len(t, a.Raw, 96)
    assert.NotEqual(t, a.Raw, b.Raw)
    assert.WithinDuration(t, time.Now().Add(7*24*time.Hour), a.Exp, 5*time.Second)

    h := HashRefreshRaw(a.Raw)
    assert.Len(t, h, 64)
    assert.Equal(t, h, HashRefreshRaw(a.Raw))
    assert.NotEqual(t, h, HashRefreshRaw(b.Raw))
}

func TestPasswordHashing(t *testing.T) {
    hash, err := HashPassword("hunter2", 4)
    require.NoError(t, err)
    assert.True(t, VerifyPassword(hash, "hunter2"))
    assert.False(t, VerifyPassword(hash, "hunter3"))
    assert.False(t, VerifyPassword("not-a-hash", "hunter2"))

    // out-of-range cost falls back to the default instead of failing
    hash, err = HashPassword("pw", 99)
    require.NoError(t, err)
    assert.True(t, VerifyPassword(hash, "pw"))
}
