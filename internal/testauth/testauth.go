// Package testauth issues RS256 tokens and the matching JWKS for tests.
package testauth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const KeyID = "logboard-test"

type Issuer struct {
	privateKey *rsa.PrivateKey
}

func NewIssuer(t *testing.T) *Issuer {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return &Issuer{privateKey: privateKey}
}

// JWKS is the public key set in the format served by an OIDC provider.
func (i *Issuer) JWKS() json.RawMessage {
	publicKey := i.privateKey.PublicKey
	jwks, _ := json.Marshal(map[string]interface{}{
		"keys": []map[string]string{{
			"kty": "RSA",
			"kid": KeyID,
			"alg": "RS256",
			"use": "sig",
			"n":   base64.RawURLEncoding.EncodeToString(publicKey.N.Bytes()),
			"e":   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(publicKey.E)).Bytes()),
		}},
	})
	return jwks
}

// Token signs a token for subject carrying the realm roles, valid for ttl. A negative ttl
// yields an expired token.
func (i *Issuer) Token(t *testing.T, subject string, ttl time.Duration, roles ...string) string {
	claims := jwt.MapClaims{
		"sub":          subject,
		"exp":          time.Now().Add(ttl).Unix(),
		"iat":          time.Now().Add(-time.Minute).Unix(),
		"realm_access": map[string]interface{}{"roles": roles},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = KeyID
	signed, err := token.SignedString(i.privateKey)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}
