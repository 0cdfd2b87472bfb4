package auth

import "rescribe/internal/domain/models"

// JWTVerifier validates bearer tokens issued by the reScribe auth service.
// Tokens are never issued here.
type JWTVerifier interface {
	// VerifyToken validates a JWT token string and returns the parsed claims.
	// Returns domain.ErrUnauthorized if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*models.Claims, error)

	// Close releases any resources held by the verifier
	Close() error
}
