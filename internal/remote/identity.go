package remote

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

var ErrNoIdentity = errors.New("token carries no subject")

// IdentityFromToken returns the subject of a bearer token. With an empty
// signingKey the signature is not checked; the remote store verifies it on
// every request anyway.
func IdentityFromToken(token string, signingKey []byte) (string, error) {
	claims, err := parseJWTToken(token, signingKey)
	if err != nil {
		return "", err
	}
	if claims.Subject == "" {
		return "", ErrNoIdentity
	}
	return claims.Subject, nil
}

func parseJWTToken(tokenString string, signingKey []byte) (*jwt.RegisteredClaims, error) {
	claims := &jwt.RegisteredClaims{}

	if len(signingKey) == 0 {
		_, _, err := jwt.NewParser().ParseUnverified(tokenString, claims)
		if err != nil {
			return nil, fmt.Errorf("invalid token: %w", err)
		}
		return claims, nil
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return signingKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	parsed, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return nil, fmt.Errorf("failed to parse token claims")
	}
	return parsed, nil
}
