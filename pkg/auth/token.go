// Package auth выпускает и проверяет JWT токены доступа к API.
package auth

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"splitit/pkg/config"
)

// Области доступа
const (
	ScopeSettle  = "settle"
	ScopeHistory = "history"
)

// AllScopes все известные области доступа
var AllScopes = []string{ScopeSettle, ScopeHistory}

var (
	ErrMissingSecret = errors.New("auth secret is not configured")
	ErrInvalidToken  = errors.New("invalid token")
	ErrUnknownScope  = errors.New("unknown scope")
)

// Config конфигурация токенов
type Config struct {
	Secret   string
	Issuer   string
	TokenTTL time.Duration
}

// FromConfig собирает Config из секции auth
func FromConfig(cfg *config.AuthConfig) *Config {
	return &Config{
		Secret:   cfg.Secret,
		Issuer:   cfg.Issuer,
		TokenTTL: cfg.TokenTTL,
	}
}

// Claims claims токена доступа
type Claims struct {
	Scopes []string `json:"scopes"`
	jwt.RegisteredClaims
}

// HasScope проверяет наличие области доступа
func (c *Claims) HasScope(scope string) bool {
	return slices.Contains(c.Scopes, scope)
}

// TokenManager подписывает и проверяет токены HS256
type TokenManager struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager создаёт менеджер. Пустой секрет - ошибка.
func NewTokenManager(cfg *Config) (*TokenManager, error) {
	if cfg == nil || cfg.Secret == "" {
		return nil, ErrMissingSecret
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &TokenManager{
		secret: []byte(cfg.Secret),
		issuer: cfg.Issuer,
		ttl:    ttl,
		now:    time.Now,
	}, nil
}

// Issue выпускает токен для subject. ttl <= 0 - срок из конфигурации.
func (m *TokenManager) Issue(subject string, scopes []string, ttl time.Duration) (string, *Claims, error) {
	if subject == "" {
		return "", nil, errors.New("token subject is required")
	}
	for _, s := range scopes {
		if !slices.Contains(AllScopes, s) {
			return "", nil, fmt.Errorf("%w: %s", ErrUnknownScope, s)
		}
	}
	if ttl <= 0 {
		ttl = m.ttl
	}

	now := m.now()
	claims := &Claims{
		Scopes: scopes,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", nil, fmt.Errorf("sign token: %w", err)
	}
	return token, claims, nil
}

// Validate проверяет подпись, срок и издателя токена
func (m *TokenManager) Validate(tokenString string) (*Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithExpirationRequired(),
	}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

type claimsKey struct{}

// WithClaims кладёт claims в контекст
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey{}, c)
}

// ClaimsFromContext достаёт claims, положенные интерсептором
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok
}
