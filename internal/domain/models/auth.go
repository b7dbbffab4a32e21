package models

import "github.com/golang-jwt/jwt/v5"

// IdentityClaims represents the JWT claims issued by the identity provider.
// The role travels as a custom attribute; older tokens carry it in app_metadata.
type IdentityClaims struct {
	jwt.RegisteredClaims                        // Standard JWT claims (sub, iss, aud, exp, iat, etc.)
	Email                string                 `json:"email"`
	EmailVerified        bool                   `json:"email_verified"`
	CustomRole           string                 `json:"custom:role"`
	AppMetadata          map[string]interface{} `json:"app_metadata"`
	TokenUse             string                 `json:"token_use"`
}

// RoleClaim returns the free-text role carried by the token, or "" if absent.
func (c *IdentityClaims) RoleClaim() string {
	if c.CustomRole != "" {
		return c.CustomRole
	}
	if role, ok := c.AppMetadata["role"].(string); ok {
		return role
	}
	return ""
}

// Identity converts the verified claims into the identity handed to the authorization core.
func (c *IdentityClaims) Identity() ExternalIdentity {
	return ExternalIdentity{
		SubjectID:     c.Subject,
		Email:         c.Email,
		RoleClaim:     c.RoleClaim(),
		EmailVerified: c.EmailVerified,
	}
}

// ExternalIdentity is an already-authenticated caller as asserted by the identity provider.
// It is built fresh for every request and trusted as supplied.
type ExternalIdentity struct {
	SubjectID     string `json:"subject_id"`
	Email         string `json:"email"`
	RoleClaim     string `json:"role_claim"`
	EmailVerified bool   `json:"email_verified"`
}

// Owner is the internal user record an identity resolves to.
type Owner struct {
	ID    OwnerID
	Email string
	Role  string // stored role, free text; normalize before use
}
