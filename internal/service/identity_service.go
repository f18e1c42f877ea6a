package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/orgportal-api/internal/models"
	appErrors "github.com/noah-isme/orgportal-api/pkg/errors"
)

// IdentityService verifies bearer tokens issued by the external identity
// provider. The engine never issues or refreshes tokens.
type IdentityService struct {
	secret []byte
	issuer string
}

// NewIdentityService constructs the verifier.
func NewIdentityService(secret, issuer string) *IdentityService {
	return &IdentityService{secret: []byte(secret), issuer: issuer}
}

// ValidateToken parses and verifies a bearer token and returns its claims.
func (s *IdentityService) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	if tokenString == "" {
		return nil, appErrors.ErrUnauthorized
	}

	claims := &models.JWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired token")
	}
	if claims.UserID == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token missing subject")
	}
	if s.issuer != "" && claims.Issuer != s.issuer {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "unknown token issuer")
	}
	return claims, nil
}
