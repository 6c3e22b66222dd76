// Package auth resolves the authenticated actor identity consumed by the
// record access layer for soft-delete attribution. Sessions and token
// issuance belong to the external auth collaborator; this package only
// extracts "current actor id" from a presented token.
package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/recordkit/recordkit/pkg/observability/logger"
)

var (
	// ErrInvalidToken classifies tokens that fail signature or claim validation.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrMissingSubject classifies valid tokens carrying no subject claim.
	ErrMissingSubject = errors.New("auth: token has no subject")
)

// ActorResolver extracts the actor id from HMAC-signed JWTs.
type ActorResolver struct {
	secret []byte
	logger logger.Logger
}

// NewActorResolver creates a resolver verifying tokens with the given secret.
func NewActorResolver(secret string, log logger.Logger) (*ActorResolver, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &ActorResolver{secret: []byte(secret), logger: log}, nil
}

// Resolve validates the token and returns its subject claim as the actor id.
func (r *ActorResolver) Resolve(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return r.secret, nil
	})
	if err != nil {
		if r.logger != nil {
			r.logger.Debug("token validation failed", "error", err)
		}
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if subject == "" {
		return "", ErrMissingSubject
	}
	return subject, nil
}
