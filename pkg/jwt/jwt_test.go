package jwt_test

import (
	"testing"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aannaassalam/coachiatry-sub001/pkg/jwt"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func sign(t *testing.T, claims gojwt.Claims) string {
	t.Helper()
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, claims).SignedString([]byte("any-secret"))
	require.NoError(t, err)
	return token
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		claims  gojwt.MapClaims
		subject string
		err     error
	}{
		{"user_id", gojwt.MapClaims{"user_id": "u1", "sub": "s1"}, "u1", nil},
		{"sub fallback", gojwt.MapClaims{"sub": "s1"}, "s1", nil},
		{"no subject", gojwt.MapClaims{"email": "a@b.c"}, "", jwt.ErrInvalidToken},
		{"refresh token", gojwt.MapClaims{"user_id": "u1", "type": "refresh"}, "", jwt.ErrInvalidToken},
		{"expired", gojwt.MapClaims{"user_id": "u1", "exp": now.Add(-time.Minute).Unix()}, "", jwt.ErrExpiredToken},
		{"not yet expired", gojwt.MapClaims{"user_id": "u1", "exp": now.Add(time.Hour).Unix()}, "u1", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := jwt.Decode(sign(t, tt.claims), now)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.subject, claims.Subject())
		})
	}
}

func TestDecode_Malformed(t *testing.T) {
	_, err := jwt.Decode("not-a-token", now)
	assert.ErrorIs(t, err, jwt.ErrInvalidToken)
}
