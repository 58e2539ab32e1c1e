package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"storefront/internal/domain"
)

// TokenExpiration is how long an issued token stays valid, absent a
// password change.
const TokenExpiration = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid token")

// Claims is the fixed claim set carried by every issued token. The current
// password hash is embedded so that rotating the password implicitly
// invalidates all tokens issued before the rotation: validation compares the
// embedded hash against the stored one. The hash never appears in response
// bodies and is protected by the token signature.
type Claims struct {
	UserID       uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"firstName"`
	LastName     string    `json:"lastName"`
	PasswordHash string    `json:"password"`
	Roles        []string  `json:"roles"`
	jwt.RegisteredClaims
}

// TokenManager issues and parses signed HS256 tokens.
type TokenManager struct {
	secret []byte
	expiry time.Duration
}

// NewTokenManager creates a TokenManager signing with secret.
func NewTokenManager(secret string) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		expiry: TokenExpiration,
	}
}

// Issue builds a signed token for user carrying the fixed claim set,
// including the password hash current at issuance time.
func (m *TokenManager) Issue(user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:       user.ID,
		Username:     user.Email,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		PasswordHash: user.PasswordHash,
		Roles:        user.EffectiveRoles(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Parse verifies the signature and expiry of a token string and returns its
// claims. Callers that need the implicit-revocation check must also compare
// Claims.PasswordHash against the user's stored hash.
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
