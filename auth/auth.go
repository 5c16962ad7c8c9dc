// Package auth checks the configured credentials before a pass touches the inbox.
package auth

import (
	"context"
	"fmt"

	"github.com/agnosto/dm-archiver/posts"
)

// AccountInfo describes the authenticated account.
type AccountInfo struct {
	ID         string
	Name       string
	ScreenName string
}

// Verifier is the part of the API client Login needs.
type Verifier interface {
	VerifyCredentials(ctx context.Context) (posts.Account, error)
}

// Login verifies the credentials and returns the account they belong to.
func Login(ctx context.Context, client Verifier) (*AccountInfo, error) {
	account, err := client.VerifyCredentials(ctx)
	if err != nil {
		return nil, fmt.Errorf("verify credentials: %w", err)
	}
	if account.IDStr == "" {
		return nil, fmt.Errorf("verify credentials: response carries no account id")
	}

	return &AccountInfo{
		ID:         account.IDStr,
		Name:       account.Name,
		ScreenName: account.ScreenName,
	}, nil
}
