package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/orgportal-api/internal/models"
	appErrors "github.com/noah-isme/orgportal-api/pkg/errors"
)

func signToken(t *testing.T, secret, issuer string, expiry time.Duration) string {
	t.Helper()
	claims := &models.JWTClaims{
		UserID:     "u1",
		Department: "finance",
		Role:       models.RoleEmployee,
		FullName:   "Alex Doe",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func TestIdentityServiceValidateToken(t *testing.T) {
	svc := NewIdentityService("secret", "orgportal-idp")

	claims, err := svc.ValidateToken(signToken(t, "secret", "orgportal-idp", time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, "finance", claims.Department)

	identity := claims.ToIdentity()
	require.NotNil(t, identity)
	assert.Equal(t, models.RoleEmployee, identity.Role)
}

func TestIdentityServiceRejectsBadTokens(t *testing.T) {
	svc := NewIdentityService("secret", "orgportal-idp")

	cases := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"wrong secret", signToken(t, "other", "orgportal-idp", time.Hour)},
		{"wrong issuer", signToken(t, "secret", "someone-else", time.Hour)},
		{"expired", signToken(t, "secret", "orgportal-idp", -time.Hour)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.ValidateToken(tc.token)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
		})
	}
}
