package utils

import (
	"errors"

	"tahanan/config"

	"github.com/golang-jwt/jwt"
)

// Identity is the authenticated caller as asserted by the external identity
// provider. The core trusts it as-is.
type Identity struct {
	UserID string
	Role   string
}

// ValidateToken checks the token signature and expiration against the
// shared identity-provider secret.
func ValidateToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(config.AppConfig.JWTSecret), nil
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// IdentityFromToken extracts the asserted user id and role from a validated
// token's claims.
func IdentityFromToken(token *jwt.Token) (*Identity, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid token claims")
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("token missing subject")
	}
	role, _ := claims["role"].(string)
	if role == "" {
		role = "guest"
	}
	return &Identity{UserID: sub, Role: role}, nil
}
