package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const revokedPrefix = "auth:revoked:"

// Claims is the JWT payload: {userId} plus expiry and a token id.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// TokenService signs HS256 bearer tokens. When Rdb is set, logged-out token
// ids are kept in Redis until they would have expired anyway.
type TokenService struct {
	Secret []byte
	TTL    time.Duration
	Rdb    *redis.Client
	Now    func() time.Time
}

func (t *TokenService) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

// Issue returns a signed token for userID.
func (t *TokenService) Issue(userID string) (string, error) {
	now := t.now()
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.TTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.Secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse checks signature and expiry only.
func (t *TokenService) Parse(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) {
		return t.Secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Verify parses token and rejects it when it was revoked by a logout.
func (t *TokenService) Verify(ctx context.Context, token string) (*Claims, error) {
	claims, err := t.Parse(token)
	if err != nil {
		return nil, err
	}
	if t.Rdb == nil || claims.ID == "" {
		return claims, nil
	}
	n, err := t.Rdb.Exists(ctx, revokedPrefix+claims.ID).Result()
	if err != nil {
		return nil, fmt.Errorf("check revocation: %w", err)
	}
	if n > 0 {
		return nil, ErrRevokedToken
	}
	return claims, nil
}

// Revoke denies claims until their expiry. Without Redis it is a no-op.
func (t *TokenService) Revoke(ctx context.Context, claims *Claims) error {
	if t.Rdb == nil || claims == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		ttl = claims.ExpiresAt.Sub(t.now())
	}
	if ttl <= 0 {
		return nil
	}
	return t.Rdb.Set(ctx, revokedPrefix+claims.ID, claims.UserID, ttl).Err()
}

// IsInvalid reports whether err means the caller presented a bad token
// rather than the check itself failing.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrRevokedToken)
}
