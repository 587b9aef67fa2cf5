package utils // package utils provides helper functions for token creation and hashing

import (
    "crypto/rand"   // secure random number generation
    "crypto/sha256" // SHA‑256 hashing for refresh tokens
    "encoding/hex"  // hex encoding and decoding functions
    "errors"
    "fmt"
    "time" // time utilities for generating expirations

    "github.com/golang-jwt/jwt/v5" // JWT library for creating signed tokens

    "github.com/iliyamo/academy-access/internal/model"
)

// TokenTypeAccess is the value of the "type" claim on access tokens.
const TokenTypeAccess = "access"

// ErrInvalidToken is returned by TokenSigner.Parse for malformed, expired,
// mis-signed or otherwise unacceptable tokens.  The cause is wrapped.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
    Token string    // the serialized JWT string
    Exp   time.Time // the UTC expiration time
}

// RefreshToken represents a long‑lived token used to obtain new access tokens.
// The Raw field contains the raw token string returned to the client.  The Exp
// field records when it expires.  In the database only a SHA‑256 hash of the
// raw string is stored.
type RefreshToken struct {
    Raw string    // raw token string returned to the client
    Exp time.Time // UTC expiration time
}

// AccessClaims is the payload of an access token:
//
//  {sub, subject_type, user_id|coach_id, role (users only), iat, exp, type}
//
// sub carries the username.  Exactly one of UserID/CoachID is set and it
// matches SubjectType.
type AccessClaims struct {
    SubjectType model.PrincipalKind `json:"subject_type"`
    UserID      *uint64             `json:"user_id,omitempty"`
    CoachID     *uint64             `json:"coach_id,omitempty"`
    Role        string              `json:"role,omitempty"`
    Type        string              `json:"type"`
    jwt.RegisteredClaims
}

// TokenSigner issues and verifies access tokens with a symmetric secret.
// It performs no I/O.
type TokenSigner struct {
    secret []byte
    method jwt.SigningMethod
    ttl    time.Duration
    now    func() time.Time
}

// NewTokenSigner accepts HS256, HS384 or HS512.  Asymmetric algorithms are
// rejected because the configuration only carries a shared secret.
func NewTokenSigner(secret, algorithm string, ttl time.Duration) (*TokenSigner, error) {
    if secret == "" {
        return nil, errors.New("jwt secret is empty")
    }
    if ttl <= 0 {
        return nil, fmt.Errorf("access token ttl must be positive, got %s", ttl)
    }
    m, ok := jwt.GetSigningMethod(algorithm).(*jwt.SigningMethodHMAC)
    if !ok {
        return nil, fmt.Errorf("unsupported signing algorithm %q", algorithm)
    }
    return &TokenSigner{secret: []byte(secret), method: m, ttl: ttl, now: time.Now}, nil
}

// WithClock returns a copy of the signer that reads time from now.  Used to
// mint and verify tokens at fixed instants.
func (s *TokenSigner) WithClock(now func() time.Time) *TokenSigner {
    cp := *s
    cp.now = now
    return &cp
}

// TTL is the lifetime given to new access tokens.
func (s *TokenSigner) TTL() time.Duration { return s.ttl }

// Sign builds and signs an access token for the identity.
func (s *TokenSigner) Sign(id model.Identity) (AccessToken, error) {
    issued := s.now().UTC()
    exp := issued.Add(s.ttl)
    claims := AccessClaims{
        SubjectType: id.Kind(),
        Type:        TokenTypeAccess,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   id.Username(),
            IssuedAt:  jwt.NewNumericDate(issued),
            ExpiresAt: jwt.NewNumericDate(exp),
        },
    }
    switch id.Kind() {
    case model.KindUser:
        u, _ := id.User()
        claims.UserID = &u.ID
        claims.Role = string(u.Role)
    case model.KindCoach:
        c, _ := id.Coach()
        claims.CoachID = &c.ID
    default:
        return AccessToken{}, fmt.Errorf("cannot sign token for principal kind %q", id.Kind())
    }
    signed, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// Parse verifies signature, algorithm and expiry and returns the claims.
// Tokens whose "type" is not "access" are rejected.  Subject-type checks are
// left to the identity resolver.
func (s *TokenSigner) Parse(raw string) (*AccessClaims, error) {
    claims := &AccessClaims{}
    tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
        return s.secret, nil
    },
        jwt.WithValidMethods([]string{s.method.Alg()}),
        jwt.WithExpirationRequired(),
        jwt.WithIssuedAt(),
        jwt.WithTimeFunc(s.now),
    )
    if err != nil {
        return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
    }
    if !tok.Valid {
        return nil, ErrInvalidToken
    }
    if claims.Type != TokenTypeAccess {
        return nil, fmt.Errorf("%w: unexpected token type %q", ErrInvalidToken, claims.Type)
    }
    return claims, nil
}

// NewRefreshToken returns a cryptographically secure random token (raw) and
// its expiration time.  The ttlDays parameter controls how many days the
// refresh token is valid.
func NewRefreshToken(ttlDays int) (RefreshToken, error) {
    raw, err := randomHex(48) // 48 bytes -> 96 hex chars
    if err != nil {
        return RefreshToken{}, err
    }
    return RefreshToken{
        Raw: raw,
        Exp: time.Now().UTC().Add(time.Duration(ttlDays) * 24 * time.Hour),
    }, nil
}

// HashRefreshRaw returns the SHA‑256 hash of the raw refresh token as a hex
// string.  Only this value is persisted.
func HashRefreshRaw(raw string) string {
    sum := sha256.Sum256([]byte(raw))
    return hex.EncodeToString(sum[:])
}

// randomHex returns a hex‑encoded string generated from n bytes of
// cryptographically secure random data.
func randomHex(n int) (string, error) {
    buf := make([]byte, n)
    if _, err := rand.Read(buf); err != nil {
        return "", err
    }
    return hex.EncodeToString(buf), nil
}
