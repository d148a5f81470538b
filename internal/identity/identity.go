// Package identity resolves authenticated user ids to contact details
// through the identity provider.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/clerk/clerk-sdk-go/v2"
	"github.com/clerk/clerk-sdk-go/v2/user"
)

// ErrNoEmail is returned when the user exists but has no email address on file
var ErrNoEmail = errors.New("user has no email address")

// Directory resolves a user id to the user's email address
type Directory interface {
	ResolveEmail(ctx context.Context, userID string) (string, error)
}

// ClerkDirectory looks users up through the Clerk Backend API
type ClerkDirectory struct {
	users *user.Client
}

var _ Directory = (*ClerkDirectory)(nil)

// NewClerkDirectory creates a directory authenticated with a Clerk secret key
func NewClerkDirectory(secretKey string) *ClerkDirectory {
	config := &clerk.ClientConfig{}
	config.Key = clerk.String(secretKey)
	return &ClerkDirectory{users: user.NewClient(config)}
}

// ResolveEmail returns the user's primary email, or the first one on file
func (d *ClerkDirectory) ResolveEmail(ctx context.Context, userID string) (string, error) {
	u, err := d.users.Get(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("get user %s: %w", userID, err)
	}
	email := pickEmail(u)
	if email == "" {
		return "", ErrNoEmail
	}
	return email, nil
}

func pickEmail(u *clerk.User) string {
	if u == nil {
		return ""
	}
	if u.PrimaryEmailAddressID != nil {
		for _, addr := range u.EmailAddresses {
			if addr != nil && addr.ID == *u.PrimaryEmailAddressID && addr.EmailAddress != "" {
				return addr.EmailAddress
			}
		}
	}
	for _, addr := range u.EmailAddresses {
		if addr != nil && addr.EmailAddress != "" {
			return addr.EmailAddress
		}
	}
	return ""
}

// StaticDirectory serves addresses from a fixed map. Used in development
// when no identity provider key is configured.
type StaticDirectory map[string]string

// ResolveEmail returns the mapped address for userID
func (d StaticDirectory) ResolveEmail(_ context.Context, userID string) (string, error) {
	if email := d[userID]; email != "" {
		return email, nil
	}
	return "", ErrNoEmail
}

// FallbackDirectory resolves every user to the same address
type FallbackDirectory string

// ResolveEmail returns the fixed address, or ErrNoEmail when it is empty
func (d FallbackDirectory) ResolveEmail(context.Context, string) (string, error) {
	if d == "" {
		return "", ErrNoEmail
	}
	return string(d), nil
}
