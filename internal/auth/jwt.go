package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims is the JWT payload issued on login. Role is carried so handlers can
// authorize admin-only operations without a user lookup. ID is the token's
// jti, which logout records on the revocation list.
type Claims struct {
	UserID uuid.UUID `json:"uid"`
	Role   string    `json:"role"`
	jwt.RegisteredClaims
}

type Manager struct {
	secret   []byte
	tokenTTL time.Duration
	resetTTL time.Duration
}

func NewManager(secret string, tokenTTL, resetTTL time.Duration) *Manager {
	return &Manager{secret: []byte(secret), tokenTTL: tokenTTL, resetTTL: resetTTL}
}

func (m *Manager) IssueToken(userID uuid.UUID, role string) (string, error) {
	return m.issue(userID, role, m.tokenTTL)
}

// IssueResetToken issues a token for the password-reset mail. It carries the
// same claims as a login token but expires on the much shorter reset TTL.
func (m *Manager) IssueResetToken(userID uuid.UUID, role string) (string, error) {
	return m.issue(userID, role, m.resetTTL)
}

func (m *Manager) issue(userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	tokenID, err := uuid.NewV4()
	if err != nil {
		return "", fmt.Errorf("auth: failed to generate token id: %w", err)
	}

	now := time.Now()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID.String(),
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("auth: failed to sign token: %w", err)
	}

	return signed, nil
}

func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}
