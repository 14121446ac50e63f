package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"imagesapi/internal/config"
	"imagesapi/internal/domain"
)

func rsaKeyPair(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)
	pemBytes := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	return key, base64.StdEncoding.EncodeToString(pemBytes)
}

func sign(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestAuthenticate(t *testing.T) {
	key, public := rsaKeyPair(t)
	other, _ := rsaKeyPair(t)

	v, err := NewVerifier(config.AuthConfig{PublicKey: public, Algorithm: "RS256", OwnerClaim: "sub"})
	require.NoError(t, err)

	valid := sign(t, key, jwt.MapClaims{
		"sub":                "alice",
		"given_name":         "Alice",
		"family_name":        "Liddell",
		"email":              "alice@example.com",
		"x_permission_level": 15,
		"exp":                time.Now().Add(time.Hour).Unix(),
	})

	identity, err := v.Authenticate("Bearer " + valid)
	require.NoError(t, err)
	assert.Equal(t, domain.Identity{
		Owner:           "alice",
		Subject:         "alice",
		FirstName:       "Alice",
		LastName:        "Liddell",
		Email:           "alice@example.com",
		PermissionLevel: 15,
	}, identity)

	failures := map[string]string{
		"missing header":  "",
		"wrong scheme":    "Basic " + valid,
		"no token":        "Bearer ",
		"wrong key":       "Bearer " + sign(t, other, jwt.MapClaims{"sub": "alice"}),
		"expired":         "Bearer " + sign(t, key, jwt.MapClaims{"sub": "alice", "exp": time.Now().Add(-time.Minute).Unix()}),
		"no owner claim":  "Bearer " + sign(t, key, jwt.MapClaims{"email": "alice@example.com"}),
		"malformed token": "Bearer not.a.jwt",
	}
	for name, header := range failures {
		t.Run(name, func(t *testing.T) {
			_, err := v.Authenticate(header)
			require.Error(t, err)
			assert.Equal(t, domain.KindAuthentication, domain.KindOf(err))
			assert.NotNil(t, errors.Unwrap(err))
		})
	}
}

func TestAuthenticateRejectsOtherAlgorithms(t *testing.T) {
	_, public := rsaKeyPair(t)
	v, err := NewVerifier(config.AuthConfig{PublicKey: public, Algorithm: "RS256"})
	require.NoError(t, err)

	hs, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = v.Authenticate("Bearer " + hs)
	assert.Equal(t, domain.KindAuthentication, domain.KindOf(err))
}

func TestAuthenticateHMACWithCustomOwnerClaim(t *testing.T) {
	secret := []byte("shared-secret")
	v, err := NewVerifier(config.AuthConfig{
		PublicKey:  base64.StdEncoding.EncodeToString(secret),
		Algorithm:  "HS256",
		OwnerClaim: "email",
	})
	require.NoError(t, err)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "42",
		"email": "bob@example.com",
	}).SignedString(secret)
	require.NoError(t, err)

	identity, err := v.Authenticate("Bearer " + token)
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", identity.Owner)
	assert.Equal(t, "42", identity.Subject)
}

func TestNewVerifierRejectsBadKey(t *testing.T) {
	_, err := NewVerifier(config.AuthConfig{PublicKey: "%%%", Algorithm: "RS256"})
	assert.Error(t, err)

	_, err = NewVerifier(config.AuthConfig{
		PublicKey: base64.StdEncoding.EncodeToString([]byte("not pem")),
		Algorithm: "RS256",
	})
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	token, err := BearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", token)

	_, err = BearerToken("bearer abc")
	assert.ErrorIs(t, err, ErrInvalidScheme)

	_, err = BearerToken("   ")
	assert.ErrorIs(t, err, ErrMissingToken)
}
