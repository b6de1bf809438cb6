// Package client holds the adapters for the independently-owned
// services the purchase saga calls out to. The adapters normalize each
// collaborator's failure shape into the API error taxonomy before it
// reaches the orchestrator.
package client

import "context"

// FundClient is the fund-transfer collaborator contract. AdjustBalance
// carries no idempotency key; a retried call moves money twice.
type FundClient interface {
	// GetBalance returns the user's balance in currency minor units.
	GetBalance(ctx context.Context, userID int64) (int64, error)

	// AdjustBalance applies a signed delta to the user's balance and
	// returns the new balance.
	AdjustBalance(ctx context.Context, userID int64, delta int64) (int64, error)
}

// IdentityClient is the identity collaborator contract. Credential
// mutations are addressed by a session id derived from the account's
// username.
type IdentityClient interface {
	// GetEmail returns the email registered for the user.
	GetEmail(ctx context.Context, userID int64) (string, error)

	// ChangePassword rotates the password behind the session.
	ChangePassword(ctx context.Context, sessionID, oldPassword, newPassword string) error

	// ChangeEmail retargets the email behind the session.
	ChangeEmail(ctx context.Context, sessionID, newEmail string) error

	// CheckCredentials verifies a username/password pair. Used when a
	// seller lists an account, not during purchase.
	CheckCredentials(ctx context.Context, username, password string) error
}
