package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/jwks"
	clerkjwt "github.com/clerk/clerk-sdk-go/v2/jwt"
)

// ClerkVerifier verifies Clerk session tokens against the instance's
// JSON Web Key Set. Keys are fetched once per key id and cached.
type ClerkVerifier struct {
	jwks *jwks.Client

	mu   sync.RWMutex
	keys map[string]*clerk.JSONWebKey
}

// NewClerkVerifier creates a verifier authenticated with a Clerk secret key
func NewClerkVerifier(secretKey string) *ClerkVerifier {
	config := &clerk.ClientConfig{}
	config.Key = clerk.String(secretKey)
	return &ClerkVerifier{
		jwks: jwks.NewClient(config),
		keys: make(map[string]*clerk.JSONWebKey),
	}
}

// Verify checks the token's signature, expiry and issuer and returns the
// Clerk user id it was issued to
func (v *ClerkVerifier) Verify(ctx context.Context, token string) (string, error) {
	unverified, err := clerkjwt.Decode(ctx, &clerkjwt.DecodeParams{Token: token})
	if err != nil {
		return "", fmt.Errorf("decode session token: %w", err)
	}

	jwk, err := v.key(ctx, unverified.KeyID)
	if err != nil {
		return "", err
	}

	claims, err := clerkjwt.Verify(ctx, &clerkjwt.VerifyParams{Token: token, JWK: jwk})
	if err != nil {
		return "", fmt.Errorf("verify session token: %w", err)
	}
	return claims.Subject, nil
}

func (v *ClerkVerifier) key(ctx context.Context, keyID string) (*clerk.JSONWebKey, error) {
	v.mu.RLock()
	jwk, ok := v.keys[keyID]
	v.mu.RUnlock()
	if ok {
		return jwk, nil
	}

	jwk, err := clerkjwt.GetJSONWebKey(ctx, &clerkjwt.GetJSONWebKeyParams{
		KeyID:      keyID,
		JWKSClient: v.jwks,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch session key %q: %w", keyID, err)
	}

	v.mu.Lock()
	v.keys[keyID] = jwk
	v.mu.Unlock()
	return jwk, nil
}
