package jwt

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are carried by control API tokens.
type Claims struct {
	jwt.RegisteredClaims
	League string `json:"league"`
	Role   string `json:"role"`
}

type Role string

const (
	// RoleViewer may read status and exports.
	RoleViewer Role = "viewer"
	// RoleCommissioner may also play, stop and force results.
	RoleCommissioner Role = "commissioner"
)

// Allows reports whether a token holding r satisfies a route requiring want.
func (r Role) Allows(want Role) bool {
	if r == want {
		return true
	}
	return r == RoleCommissioner && want == RoleViewer
}

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
)
