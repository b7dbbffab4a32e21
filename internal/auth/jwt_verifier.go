package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"newsroom/internal/domain"
	"newsroom/internal/domain/models"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// allowedAlgorithms prevents algorithm confusion attacks.
var allowedAlgorithms = []string{"RS256", "ES256"}

// JWKSVerifier implements JWTVerifier using the identity provider's JWKS endpoint.
type JWKSVerifier struct {
	keyfunc jwt.Keyfunc
	parser  *jwt.Parser
	logger  *slog.Logger
}

// NewJWTVerifier creates a new JWT verifier that fetches public keys from a JWKS endpoint.
// The JWKS keys are cached and automatically refreshed based on HTTP cache headers.
func NewJWTVerifier(jwksURL string, logger *slog.Logger) (JWTVerifier, error) {
	if jwksURL == "" {
		return nil, errors.New("JWKS URL cannot be empty")
	}

	// keyfunc v3 automatically handles caching and refresh based on HTTP cache headers
	jwks, err := keyfunc.NewDefaultCtx(context.Background(), []string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS client: %w", err)
	}

	logger.Info("JWT verifier initialized", "jwks_url", jwksURL)

	return newVerifier(jwks.Keyfunc, logger), nil
}

func newVerifier(kf jwt.Keyfunc, logger *slog.Logger) *JWKSVerifier {
	return &JWKSVerifier{
		keyfunc: kf,
		parser:  jwt.NewParser(jwt.WithValidMethods(allowedAlgorithms), jwt.WithExpirationRequired()),
		logger:  logger,
	}
}

// VerifyToken validates a JWT token and extracts the identity claims.
// Every rejection is reported as domain.ErrUnauthorized.
func (v *JWKSVerifier) VerifyToken(tokenString string) (*models.IdentityClaims, error) {
	token, err := v.parser.ParseWithClaims(tokenString, &models.IdentityClaims{}, v.keyfunc)
	if err != nil {
		v.logger.Debug("token parse failed", "error", err.Error())
		return nil, domain.ErrUnauthorized
	}

	if !token.Valid {
		v.logger.Debug("token is invalid after parsing")
		return nil, domain.ErrUnauthorized
	}

	claims, ok := token.Claims.(*models.IdentityClaims)
	if !ok {
		v.logger.Error("failed to extract claims from token")
		return nil, domain.ErrUnauthorized
	}

	if claims.Subject == "" {
		v.logger.Debug("token missing subject claim")
		return nil, domain.ErrUnauthorized
	}

	// Access tokens carry no email and cannot be resolved to a user.
	if claims.TokenUse == "access" {
		v.logger.Debug("access token presented where an id token is required", "subject", claims.Subject)
		return nil, domain.ErrUnauthorized
	}

	return claims, nil
}

// Close releases resources held by the JWT verifier.
// In keyfunc v3, the library manages its own resources based on HTTP cache headers,
// so this is a no-op for graceful shutdown compatibility.
func (v *JWKSVerifier) Close() error {
	v.logger.Info("JWT verifier closed")
	return nil
}
