package jwtauth

import (
	"errors"
	"fmt"
	"time"

	"github.com/Leopold1975/microblog/internal/microblog/domain/models"
	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrUnexpectedMethod = errors.New("unexpected signing method")
	ErrWrongType        = errors.New("wrong token type")
)

type Type string

const (
	Access  Type = "access"
	Refresh Type = "refresh"
)

type Claims struct {
	Name string `json:"name"`
	Type Type   `json:"typ"`
	jwt.StandardClaims
}

// GetToken signs an HS256 token of the given type whose subject is the user id.
func GetToken(u models.User, typ Type, ttl time.Duration, secret string) (string, error) {
	now := time.Now()

	claims := Claims{
		Name: u.Name,
		Type: typ,
		StandardClaims: jwt.StandardClaims{ //nolint:exhaustruct
			Subject:   u.ID,
			IssuedAt:  now.Unix(),
			ExpiresAt: now.Add(ttl).Unix(),
			Id:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	s, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signed string error: %w", err)
	}

	return s, nil
}

// ValidateToken checks signature, expiry and type and returns the claims.
func ValidateToken(token string, typ Type, secret string) (Claims, error) {
	var claims Claims

	t, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrUnexpectedMethod
		}

		return []byte(secret), nil
	})
	if err != nil {
		return Claims{}, fmt.Errorf("parse token error: %w", err)
	}

	if !t.Valid || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	if claims.Type != typ {
		return Claims{}, ErrWrongType
	}

	return claims, nil
}
