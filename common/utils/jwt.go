package utils

import (
	"errors"
	"time"

	"github.com/dgrijalva/jwt-go"
)

var jwtSecret []byte

var ErrMissingPlayer = errors.New("token carries no player id")

type Claims struct {
	UserID      string `json:"userId"`
	PlayerID    string `json:"playerId"`
	DisplayName string `json:"displayName,omitempty"`
	jwt.StandardClaims
}

func (c Claims) Valid() error {
	if c.PlayerID == "" {
		return ErrMissingPlayer
	}
	return c.StandardClaims.Valid()
}

// SetJWTSecret sets the secret used to sign and verify tokens. Call it once at startup.
func SetJWTSecret(secret string) {
	jwtSecret = []byte(secret)
}

// GenerateJWTTokenWithClaims signs claims with a 24 hour expiry.
func GenerateJWTTokenWithClaims(claims Claims) (string, error) {
	now := time.Now()
	claims.StandardClaims = jwt.StandardClaims{
		ExpiresAt: now.Add(24 * time.Hour).Unix(),
		IssuedAt:  now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

// ValidateJwTTokenWithClaims verifies an HS256 token and returns its claims.
func ValidateJwTTokenWithClaims(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrSignatureInvalid
}

// GetBearerToken strips the "Bearer " prefix from an Authorization header value.
func GetBearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && header[:len(prefix)] == prefix {
		return header[len(prefix):]
	}
	return ""
}
