package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
)

var (
	ErrInvalidSession = errors.New("invalid session token")
	ErrMissingRole    = errors.New("session token does not carry a role")
)

// SessionClaims are the fields the gateway reads from the remote API's session token.
type SessionClaims struct {
	Subject string
	Role    string
}

// GenerateSessionToken signs a session token the way the remote API does.
// The gateway itself never issues sessions; this is used by the console and tests.
func GenerateSessionToken(subject, role string, secret []byte, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"id":   subject,
		"role": role,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

// ParseSessionToken validates the signature and expiry and extracts the claims.
func ParseSessionToken(tokenString string, secret []byte) (*SessionClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrInvalidSession
	}

	sub, _ := claims["id"].(string)
	if sub == "" {
		sub, _ = claims["sub"].(string)
	}
	if sub == "" {
		return nil, ErrInvalidSession
	}
	role, _ := claims["role"].(string)
	if role == "" {
		return nil, ErrMissingRole
	}
	return &SessionClaims{Subject: sub, Role: role}, nil
}
