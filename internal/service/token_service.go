package service

import (
    "context"
    "errors"
    "fmt"

    "github.com/iliyamo/academy-access/internal/model"
    "github.com/iliyamo/academy-access/internal/repository"
    "github.com/iliyamo/academy-access/internal/utils"
)

// TokenService mints access tokens and manages the refresh token lifecycle.
// Refresh tokens are opaque random strings; only their hash is stored.
type TokenService struct {
    signer         *utils.TokenSigner
    tokens         TokenStore
    refreshTTLDays int
}

func NewTokenService(signer *utils.TokenSigner, tokens TokenStore, refreshTTLDays int) *TokenService {
    return &TokenService{signer: signer, tokens: tokens, refreshTTLDays: refreshTTLDays}
}

// CreateAccessToken signs a token carrying the identity's kind and id.
func (s *TokenService) CreateAccessToken(id model.Identity) (utils.AccessToken, error) {
    if !id.Kind().Valid() {
        return utils.AccessToken{}, invariantf("access token for an empty identity")
    }
    return s.signer.Sign(id)
}

// DecodeToken verifies raw and returns its claims.  The error wraps
// utils.ErrInvalidToken.
func (s *TokenService) DecodeToken(raw string) (*utils.AccessClaims, error) {
    return s.signer.Parse(raw)
}

// CreateRefreshToken generates and persists a refresh token for owner.  The
// raw value is returned once and never stored.
func (s *TokenService) CreateRefreshToken(ctx context.Context, owner model.PrincipalRef) (utils.RefreshToken, error) {
    if err := owner.Validate(); err != nil {
        return utils.RefreshToken{}, invariantf("refresh token owner: %v", err)
    }
    rt, err := utils.NewRefreshToken(s.refreshTTLDays)
    if err != nil {
        return utils.RefreshToken{}, err
    }
    if err := s.tokens.Store(ctx, owner, utils.HashRefreshRaw(rt.Raw), rt.Exp); err != nil {
        return utils.RefreshToken{}, err
    }
    return rt, nil
}

// RefreshOwner returns the principal a usable refresh token belongs to.
// Unknown, revoked and expired tokens give ErrUnauthenticated.
func (s *TokenService) RefreshOwner(ctx context.Context, raw string) (model.PrincipalRef, error) {
    if raw == "" {
        return model.PrincipalRef{}, fmt.Errorf("%w: refresh token required", ErrUnauthenticated)
    }
    t, err := s.tokens.Lookup(ctx, utils.HashRefreshRaw(raw))
    if errors.Is(err, repository.ErrNotFound) {
        return model.PrincipalRef{}, fmt.Errorf("%w: invalid or expired refresh token", ErrUnauthenticated)
    }
    if err != nil {
        return model.PrincipalRef{}, err
    }
    return t.Owner, nil
}

// RotateRefreshToken revokes raw and issues its successor atomically.  A
// token that was already rotated, revoked or has expired gives
// ErrUnauthenticated and no new token is stored.
func (s *TokenService) RotateRefreshToken(ctx context.Context, raw string) (model.PrincipalRef, utils.RefreshToken, error) {
    next, err := utils.NewRefreshToken(s.refreshTTLDays)
    if err != nil {
        return model.PrincipalRef{}, utils.RefreshToken{}, err
    }
    owner, err := s.tokens.Rotate(ctx, utils.HashRefreshRaw(raw), utils.HashRefreshRaw(next.Raw), next.Exp)
    if errors.Is(err, repository.ErrNotFound) {
        return model.PrincipalRef{}, utils.RefreshToken{}, fmt.Errorf("%w: invalid or expired refresh token", ErrUnauthenticated)
    }
    if err != nil {
        return model.PrincipalRef{}, utils.RefreshToken{}, err
    }
    return owner, next, nil
}

// RevokeRefreshToken revokes raw.  The result is false for unknown and
// already revoked tokens; that is not an error.
func (s *TokenService) RevokeRefreshToken(ctx context.Context, raw string) (bool, error) {
    if raw == "" {
        return false, nil
    }
    return s.tokens.RevokeByHash(ctx, utils.HashRefreshRaw(raw))
}

// RevokeAll revokes every active refresh token of owner.
func (s *TokenService) RevokeAll(ctx context.Context, owner model.PrincipalRef) (int64, error) {
    return s.tokens.RevokeAllFor(ctx, owner)
}
