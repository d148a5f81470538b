package identity

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testKeyID = "ins_test_key"

func newTestVerifier(t *testing.T) (*ClerkVerifier, *rsa.PrivateKey) {
	t.Helper()
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	v := NewClerkVerifier("sk_test_unused")
	v.keys[testKeyID] = &clerk.JSONWebKey{
		Key:       &priv.PublicKey,
		KeyID:     testKeyID,
		Algorithm: "RS256",
		Use:       "sig",
	}
	return v, priv
}

func sessionToken(t *testing.T, key *rsa.PrivateKey, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestClerkVerifier_AcceptsSessionToken(t *testing.T) {
	v, priv := newTestVerifier(t)
	now := time.Now()

	token := sessionToken(t, priv, jwt.MapClaims{
		"iss": "https://clerk.example.com",
		"sub": "user_2abc",
		"iat": now.Unix(),
		"nbf": now.Add(-time.Minute).Unix(),
		"exp": now.Add(time.Hour).Unix(),
	})

	sub, err := v.Verify(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "user_2abc", sub)
}

func TestClerkVerifier_Rejects(t *testing.T) {
	v, priv := newTestVerifier(t)
	other, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	now := time.Now()

	valid := jwt.MapClaims{
		"iss": "https://clerk.example.com",
		"sub": "user_2abc",
		"exp": now.Add(time.Hour).Unix(),
	}
	with := func(k string, val interface{}) jwt.MapClaims {
		c := jwt.MapClaims{}
		for key, v := range valid {
			c[key] = v
		}
		c[k] = val
		return c
	}

	tests := []struct {
		name  string
		token string
	}{
		{name: "expired", token: sessionToken(t, priv, with("exp", now.Add(-time.Hour).Unix()))},
		{name: "foreign issuer", token: sessionToken(t, priv, with("iss", "https://evil.example.com"))},
		{name: "signed by another key", token: sessionToken(t, other, valid)},
		{name: "not a jwt", token: "not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := v.Verify(context.Background(), tt.token)
			assert.Error(t, err)
		})
	}
}

func TestClerkVerifier_RejectsHMACToken(t *testing.T) {
	v, _ := newTestVerifier(t)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iss": "https://clerk.example.com",
		"sub": "user_2abc",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	token.Header["kid"] = testKeyID
	signed, err := token.SignedString([]byte("shared"))
	require.NoError(t, err)

	_, err = v.Verify(context.Background(), signed)
	assert.ErrorContains(t, err, "signing algorithm")
}
