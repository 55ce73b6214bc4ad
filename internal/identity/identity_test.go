package identity_test

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aannaassalam/coachiatry-sub001/internal/identity"
	"github.com/aannaassalam/coachiatry-sub001/pkg/jwt"
)

func sign(t *testing.T, claims jwt.Claims) string {
	t.Helper()
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("not-the-backend-key"))
	require.NoError(t, err)
	return token
}

func TestFromToken(t *testing.T) {
	future := gojwt.NewNumericDate(time.Now().Add(time.Hour))
	past := gojwt.NewNumericDate(time.Now().Add(-time.Hour))

	tests := []struct {
		name     string
		token    func(t *testing.T) string
		wantUser string
		wantErr  error
	}{
		{
			name:     "user_id preferred over sub",
			token:    func(t *testing.T) string { return sign(t, jwt.Claims{UserID: "u1", Username: "ada", RegisteredClaims: gojwt.RegisteredClaims{Subject: "s1", ExpiresAt: future}}) },
			wantUser: "u1",
		},
		{
			name:     "sub fallback",
			token:    func(t *testing.T) string { return sign(t, jwt.Claims{RegisteredClaims: gojwt.RegisteredClaims{Subject: "s1"}}) },
			wantUser: "s1",
		},
		{
			name:     "bearer prefix stripped",
			token:    func(t *testing.T) string { return "Bearer " + sign(t, jwt.Claims{UserID: "u2"}) },
			wantUser: "u2",
		},
		{
			name:    "expired",
			token:   func(t *testing.T) string { return sign(t, jwt.Claims{UserID: "u1", RegisteredClaims: gojwt.RegisteredClaims{ExpiresAt: past}}) },
			wantErr: identity.ErrExpiredToken,
		},
		{
			name:    "refresh token",
			token:   func(t *testing.T) string { return sign(t, jwt.Claims{UserID: "u1", Type: "refresh"}) },
			wantErr: identity.ErrInvalidToken,
		},
		{
			name:    "no subject",
			token:   func(t *testing.T) string { return sign(t, jwt.Claims{Username: "ghost"}) },
			wantErr: identity.ErrInvalidToken,
		},
		{
			name:    "garbage",
			token:   func(*testing.T) string { return "not.a.jwt" },
			wantErr: identity.ErrInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := identity.FromToken(tt.token(t))
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.True(t, id.Anonymous())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantUser, id.UserID)
			assert.NotEmpty(t, id.Token)
			assert.NotContains(t, id.Token, "Bearer")
		})
	}
}

func TestFromToken_Empty(t *testing.T) {
	id, err := identity.FromToken("  ")
	require.NoError(t, err)
	assert.True(t, id.Anonymous())
}
