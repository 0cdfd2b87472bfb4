package models

import "github.com/golang-jwt/jwt/v5"

// Claims is the JWT payload issued by the reScribe auth service.
// Only verification happens here; tokens are issued elsewhere.
type Claims struct {
	jwt.RegisteredClaims        // sub, iss, aud, exp, iat
	Email                string `json:"email"`
	Type                 string `json:"type"` // "access" or "refresh"
	Plan                 string `json:"plan,omitempty"`
}

// GetUserID returns the user ID from the JWT subject claim.
func (c *Claims) GetUserID() string {
	return c.Subject
}
