// Package utils issues and verifies the authority's bearer tokens.
package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"

	"civicsync/models"
)

// ErrInvalidToken is returned for tokens that fail signature, expiry or
// claim checks.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the identity carried by a token.
type Claims struct {
	UserID string
	Role   models.Role
}

// GenerateToken signs a token for userID with the given role that expires
// after ttl.
func GenerateToken(secret string, userID string, role models.Role, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("generate token: empty secret")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"role":    string(role),
		"exp":     time.Now().Add(ttl).Unix(),
	})

	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return signed, nil
}

// ParseToken verifies tokenString and returns its claims.
func ParseToken(secret, tokenString string) (Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Claims{}, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}
	userID, _ := mapClaims["user_id"].(string)
	role, _ := mapClaims["role"].(string)
	claims := Claims{UserID: userID, Role: models.Role(role)}
	if claims.UserID == "" || !claims.Role.Valid() {
		return Claims{}, fmt.Errorf("%w: missing user_id or role", ErrInvalidToken)
	}
	return claims, nil
}
