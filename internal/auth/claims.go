package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// CustomClaims are the claims the identity system puts in its tokens.
// The username is the key for all permission and mailbox state, so a
// token without one is useless here even if cryptographically valid.
type CustomClaims struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// Validate rejects tokens missing the identity fields this API keys on.
func (c *CustomClaims) Validate() error {
	if c.UserID == "" || c.Username == "" {
		return jwt.ErrTokenInvalidClaims
	}
	return nil
}
