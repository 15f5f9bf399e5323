package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClass selects the secret and lifetime used for a token.
type TokenClass int

// Token classes.
const (
	ClassAccess TokenClass = iota
	ClassRefresh
)

// String returns "access" or "refresh".
func (c TokenClass) String() string {
	switch c {
	case ClassAccess:
		return "access"
	case ClassRefresh:
		return "refresh"
	default:
		return fmt.Sprintf("TokenClass(%d)", int(c))
	}
}

// TokenType is the token_type value returned alongside a pair.
const TokenType = "bearer"

// TokenPair is the login and refresh response body.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// SubjectChecker reports whether a token subject is still a known user.
// CredentialStore satisfies it.
type SubjectChecker interface {
	Exists(ctx context.Context, username string) (bool, error)
}

// TokenConfig holds the per-class secrets and lifetimes.
type TokenConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces time.Now for issuing and validating tokens.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) {
		s.now = now
	}
}

// tokenClaims carries the subject without omitempty, so an empty username
// is still encoded as "sub": "". A nil Subject means the key was absent.
type tokenClaims struct {
	Subject *string `json:"sub"`
	jwt.RegisteredClaims
}

// GetSubject implements jwt.Claims.
func (c tokenClaims) GetSubject() (string, error) {
	if c.Subject == nil {
		return "", nil
	}
	return *c.Subject, nil
}

type tokenClassConfig struct {
	secret []byte
	ttl    time.Duration
}

// TokenService issues and verifies HS256 tokens for both classes.
//
// Thread Safety: safe for concurrent use; it holds no mutable state.
type TokenService struct {
	classes  map[TokenClass]tokenClassConfig
	subjects SubjectChecker
	now      func() time.Time
}

// NewTokenService validates cfg and returns a service that checks token
// subjects against subjects.
func NewTokenService(cfg TokenConfig, subjects SubjectChecker, opts ...TokenOption) (*TokenService, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("access and refresh secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	if subjects == nil {
		return nil, errors.New("subject checker is required")
	}

	s := &TokenService{
		classes: map[TokenClass]tokenClassConfig{
			ClassAccess:  {secret: []byte(cfg.AccessSecret), ttl: cfg.AccessTTL},
			ClassRefresh: {secret: []byte(cfg.RefreshSecret), ttl: cfg.RefreshTTL},
		},
		subjects: subjects,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Issue signs a token of class for username, expiring one class lifetime
// from now.
func (s *TokenService) Issue(username string, class TokenClass) (string, error) {
	cc, ok := s.classes[class]
	if !ok {
		return "", fmt.Errorf("unknown token class %v", class)
	}

	now := s.now()
	claims := tokenClaims{
		Subject: &username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cc.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(cc.secret)
	if err != nil {
		return "", fmt.Errorf("signing %s token: %w", class, err)
	}
	return signed, nil
}

// IssuePair issues a fresh access and refresh token for username.
func (s *TokenService) IssuePair(username string) (TokenPair, error) {
	access, err := s.Issue(username, ClassAccess)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.Issue(username, ClassRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh, TokenType: TokenType}, nil
}

// Verify checks token against the class secret and returns its subject.
//
// Every rejection wraps ErrTokenInvalid: malformed input, a signature from
// another secret, a non-HS256 algorithm, expiry, an absent "sub" claim, or
// a subject that is no longer registered. An empty subject is valid if that
// username is registered. Only a failing subject lookup
// returns a different error.
func (s *TokenService) Verify(ctx context.Context, token string, class TokenClass) (string, error) {
	cc, ok := s.classes[class]
	if !ok {
		return "", fmt.Errorf("%w: unknown token class %v", ErrTokenInvalid, class)
	}

	parsed, err := jwt.ParseWithClaims(token, &tokenClaims{}, func(_ *jwt.Token) (any, error) {
		return cc.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return "", ErrTokenInvalid
	}
	if claims.Subject == nil {
		return "", fmt.Errorf("%w: missing subject", ErrTokenInvalid)
	}
	subject := *claims.Subject

	exists, err := s.subjects.Exists(ctx, subject)
	if err != nil {
		return "", fmt.Errorf("checking token subject: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("%w: unknown subject", ErrTokenInvalid)
	}

	return subject, nil
}

// Refresh verifies refreshToken and issues a new pair for its subject.
// The presented refresh token is not revoked.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	username, err := s.Verify(ctx, refreshToken, ClassRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	return s.IssuePair(username)
}
