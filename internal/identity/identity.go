package identity

import (
	"fmt"
	"strings"
	"time"

	"github.com/aannaassalam/coachiatry-sub001/pkg/jwt"
)

// Errors
var (
	ErrInvalidToken = jwt.ErrInvalidToken
	ErrExpiredToken = jwt.ErrExpiredToken
)

// Identity is the signed-in user the client acts as.
type Identity struct {
	UserID   string
	Username string
	Email    string
	Token    string
}

// Anonymous reports whether no user is signed in.
func (i Identity) Anonymous() bool {
	return i.UserID == ""
}

// FromToken derives the identity from an access token. An empty token is
// the anonymous identity.
func FromToken(token string) (Identity, error) {
	return fromToken(token, time.Now())
}

func fromToken(token string, now time.Time) (Identity, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return Identity{}, nil
	}

	claims, err := jwt.Decode(token, now)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to decode access token: %w", err)
	}

	return Identity{
		UserID:   claims.Subject(),
		Username: claims.Username,
		Email:    claims.Email,
		Token:    token,
	}, nil
}
