// Package auth verifies bearer access tokens and maps their claims to a
// domain.Identity.
package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"imagesapi/internal/config"
	"imagesapi/internal/domain"
)

var (
	ErrMissingToken  = errors.New("authorization header missing")
	ErrInvalidScheme = errors.New("invalid authentication scheme")
	ErrMissingOwner  = errors.New("token has no owner claim")
)

type Verifier struct {
	key        any
	parser     *jwt.Parser
	ownerClaim string
}

// NewVerifier decodes the configured key. The key is base64 text wrapping a
// PEM public key for RS256/ES256, or the raw shared secret for HS256.
func NewVerifier(cfg config.AuthConfig) (*Verifier, error) {
	raw, err := base64.StdEncoding.DecodeString(cfg.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("decode auth key: %w", err)
	}

	var key any
	switch cfg.Algorithm {
	case "RS256":
		key, err = jwt.ParseRSAPublicKeyFromPEM(raw)
	case "ES256":
		key, err = jwt.ParseECPublicKeyFromPEM(raw)
	case "HS256":
		key = raw
	default:
		err = fmt.Errorf("unsupported algorithm %q", cfg.Algorithm)
	}
	if err != nil {
		return nil, fmt.Errorf("parse auth key: %w", err)
	}

	ownerClaim := cfg.OwnerClaim
	if ownerClaim == "" {
		ownerClaim = "sub"
	}

	return &Verifier{
		key:        key,
		parser:     jwt.NewParser(jwt.WithValidMethods([]string{cfg.Algorithm})),
		ownerClaim: ownerClaim,
	}, nil
}

// Authenticate verifies the Authorization header value and returns the
// caller identity. Every failure is a domain authentication error with the
// cause chained.
func (v *Verifier) Authenticate(header string) (domain.Identity, error) {
	token, err := BearerToken(header)
	if err != nil {
		return domain.Identity{}, domain.AuthenticationError(err)
	}

	claims := jwt.MapClaims{}
	if _, err := v.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return v.key, nil
	}); err != nil {
		return domain.Identity{}, domain.AuthenticationError(err)
	}

	identity := domain.Identity{
		Subject:         stringClaim(claims, "sub"),
		FirstName:       stringClaim(claims, "given_name"),
		LastName:        stringClaim(claims, "family_name"),
		Email:           stringClaim(claims, "email"),
		PermissionLevel: intClaim(claims, "x_permission_level"),
		Owner:           stringClaim(claims, v.ownerClaim),
	}
	if identity.Owner == "" {
		return domain.Identity{}, domain.AuthenticationError(ErrMissingOwner)
	}
	return identity, nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) (string, error) {
	if strings.TrimSpace(header) == "" {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || scheme != "Bearer" {
		return "", ErrInvalidScheme
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

func stringClaim(claims jwt.MapClaims, name string) string {
	switch v := claims[name].(type) {
	case string:
		return v
	case float64:
		return fmt.Sprintf("%.0f", v)
	default:
		return ""
	}
}

func intClaim(claims jwt.MapClaims, name string) int {
	if v, ok := claims[name].(float64); ok {
		return int(v)
	}
	return 0
}
