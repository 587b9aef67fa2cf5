package service

import (
    "context"
    "errors"
    "fmt"
    "strings"

    "go.uber.org/zap"

    "github.com/iliyamo/academy-access/internal/metrics"
    "github.com/iliyamo/academy-access/internal/model"
    "github.com/iliyamo/academy-access/internal/repository"
    "github.com/iliyamo/academy-access/internal/utils"
)

// Session is what login and refresh hand back: the principal plus a fresh
// token pair.
type Session struct {
    Identity model.Identity
    Access   utils.AccessToken
    Refresh  utils.RefreshToken
}

// AuthService authenticates credentials, resolves bearer tokens to
// identities and drives the refresh token lifecycle.
type AuthService struct {
    users   UserStore
    coaches CoachStore
    tokens  *TokenService
    audit   *Auditor
    metrics *metrics.Metrics
    log     *zap.Logger

    // dummyHash is compared against when the username is unknown so that
    // a miss costs as much as a wrong password.  It uses the same cost as
    // stored hashes.
    dummyHash string
}

func NewAuthService(users UserStore, coaches CoachStore, tokens *TokenService, audit *Auditor, bcryptCost int, m *metrics.Metrics, log *zap.Logger) *AuthService {
    dummy, err := utils.HashPassword("not-a-real-password", bcryptCost)
    if err != nil {
        log.Warn("dummy password hash unavailable", zap.Error(err))
    }
    return &AuthService{users: users, coaches: coaches, tokens: tokens, audit: audit, metrics: m, log: log, dummyHash: dummy}
}

// Login checks username/password against users first, then coaches.  Wrong
// passwords, unknown usernames and inactive accounts all give
// ErrUnauthenticated.
func (s *AuthService) Login(ctx context.Context, username, password string) (Session, error) {
    username = repository.NormalizeUsername(username)
    if username == "" || password == "" {
        s.audit.Record(EventLoginAttempt, username, false, "missing credentials")
        return Session{}, fmt.Errorf("%w: username and password are required", ErrUnauthenticated)
    }

    id, err := s.authenticate(ctx, username, password)
    if err != nil {
        kind := "unknown"
        if id.Kind().Valid() {
            kind = string(id.Kind())
        }
        s.metrics.Login(kind, "failure")
        s.audit.Record(EventLoginAttempt, username, false, err.Error())
        return Session{}, err
    }

    sess, err := s.issue(ctx, id)
    if err != nil {
        s.metrics.Login(string(id.Kind()), "error")
        return Session{}, err
    }
    s.metrics.Login(string(id.Kind()), "success")
    s.audit.Record(EventLoginSuccess, username, true, string(id.Kind()))
    return sess, nil
}

// authenticate returns the matching principal.  On failure the identity is
// still returned when the username resolved, for metrics.
func (s *AuthService) authenticate(ctx context.Context, username, password string) (model.Identity, error) {
    invalid := fmt.Errorf("%w: invalid username or password", ErrUnauthenticated)

    u, err := s.users.GetByUsername(ctx, username)
    switch {
    case err == nil:
        id := model.UserIdentity(u)
        if !utils.VerifyPassword(u.PasswordHash, password) {
            return id, invalid
        }
        if !u.IsActive {
            return id, fmt.Errorf("%w: account is inactive", ErrUnauthenticated)
        }
        return id, nil
    case !errors.Is(err, repository.ErrNotFound):
        return model.Identity{}, err
    }

    c, err := s.coaches.GetByUsername(ctx, username)
    switch {
    case err == nil:
        id := model.CoachIdentity(c)
        if !utils.VerifyPassword(c.PasswordHash, password) {
            return id, invalid
        }
        if !c.IsActive {
            return id, fmt.Errorf("%w: account is inactive", ErrUnauthenticated)
        }
        return id, nil
    case !errors.Is(err, repository.ErrNotFound):
        return model.Identity{}, err
    }

    utils.VerifyPassword(s.dummyHash, password)
    return model.Identity{}, invalid
}

func (s *AuthService) issue(ctx context.Context, id model.Identity) (Session, error) {
    access, err := s.tokens.CreateAccessToken(id)
    if err != nil {
        return Session{}, err
    }
    refresh, err := s.tokens.CreateRefreshToken(ctx, id.Ref())
    if err != nil {
        return Session{}, err
    }
    return Session{Identity: id, Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a refresh token for a new pair.  The presented token
// is revoked in the same transaction that stores its successor, so it works
// exactly once.
func (s *AuthService) Refresh(ctx context.Context, raw string) (Session, error) {
    owner, err := s.tokens.RefreshOwner(ctx, raw)
    if err != nil {
        s.metrics.Refresh("rejected")
        s.audit.Record(EventTokenRefresh, "", false, err.Error())
        return Session{}, err
    }
    id, err := s.loadActive(ctx, owner)
    if err != nil {
        s.metrics.Refresh("rejected")
        s.audit.Record(EventTokenRefresh, owner.String(), false, err.Error())
        return Session{}, err
    }

    _, next, err := s.tokens.RotateRefreshToken(ctx, raw)
    if err != nil {
        s.metrics.Refresh("rejected")
        s.audit.Record(EventTokenRefresh, id.Username(), false, err.Error())
        return Session{}, err
    }
    access, err := s.tokens.CreateAccessToken(id)
    if err != nil {
        return Session{}, err
    }
    s.metrics.Refresh("success")
    s.audit.Record(EventTokenRefresh, id.Username(), true, "")
    return Session{Identity: id, Access: access, Refresh: next}, nil
}

// Logout revokes the refresh token.  The result is false when the token
// was unknown or already revoked; callers report that as success.
func (s *AuthService) Logout(ctx context.Context, actor model.Identity, raw string) (bool, error) {
    revoked, err := s.tokens.RevokeRefreshToken(ctx, raw)
    if err != nil {
        return false, err
    }
    details := ""
    if !revoked {
        details = "token already revoked or invalid"
    }
    s.audit.Record(EventLogout, actor.Username(), true, details)
    return revoked, nil
}

// ResolveIdentity turns a bearer token into the principal it names.  Bad
// tokens and vanished principals give ErrUnauthenticated; deactivated
// principals give ErrForbidden.
func (s *AuthService) ResolveIdentity(ctx context.Context, bearer string) (model.Identity, error) {
    bearer = strings.TrimSpace(bearer)
    if bearer == "" {
        return model.Identity{}, fmt.Errorf("%w: missing bearer token", ErrUnauthenticated)
    }
    claims, err := s.tokens.DecodeToken(bearer)
    if err != nil {
        return model.Identity{}, fmt.Errorf("%w: %v", ErrUnauthenticated, err)
    }

    var ref model.PrincipalRef
    switch claims.SubjectType {
    case model.KindUser:
        if claims.UserID == nil {
            return model.Identity{}, fmt.Errorf("%w: token has no user_id", ErrUnauthenticated)
        }
        ref = model.UserRef(*claims.UserID)
    case model.KindCoach:
        if claims.CoachID == nil {
            return model.Identity{}, fmt.Errorf("%w: token has no coach_id", ErrUnauthenticated)
        }
        ref = model.CoachRef(*claims.CoachID)
    default:
        return model.Identity{}, fmt.Errorf("%w: unknown subject type %q", ErrUnauthenticated, claims.SubjectType)
    }
    return s.loadActive(ctx, ref)
}

// loadActive loads ref, mapping a missing row to ErrUnauthenticated and an
// inactive one to ErrForbidden.
func (s *AuthService) loadActive(ctx context.Context, ref model.PrincipalRef) (model.Identity, error) {
    id, err := loadIdentity(ctx, s.users, s.coaches, ref)
    if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvariantViolation) {
        return model.Identity{}, fmt.Errorf("%w: %s no longer exists", ErrUnauthenticated, ref)
    }
    if err != nil {
        return model.Identity{}, err
    }
    if !id.IsActive() {
        return model.Identity{}, forbiddenf("%s account is inactive", id.Kind())
    }
    return id, nil
}

// CurrentUser narrows id to a User.  Coaches get ErrForbidden.
func CurrentUser(id model.Identity) (model.User, error) {
    u, ok := id.User()
    if !ok {
        return model.User{}, forbiddenf("user credentials required")
    }
    return u, nil
}

// loadIdentity reads the principal named by ref from the matching table.
func loadIdentity(ctx context.Context, users UserStore, coaches CoachStore, ref model.PrincipalRef) (model.Identity, error) {
    if err := ref.Validate(); err != nil {
        return model.Identity{}, invariantf("%v", err)
    }
    if ref.Kind == model.KindCoach {
        c, err := coaches.GetByID(ctx, ref.ID)
        if err != nil {
            return model.Identity{}, translate(err, ref.String())
        }
        return model.CoachIdentity(c), nil
    }
    u, err := users.GetByID(ctx, ref.ID)
    if err != nil {
        return model.Identity{}, translate(err, ref.String())
    }
    return model.UserIdentity(u), nil
}
