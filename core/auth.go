package core

import "time"

// LoginClaims is the payload of an identity token.
type LoginClaims struct {
	Username  string    // Account username, the subject of the token
	UserID    int64     // Database id of the account
	IssuedAt  time.Time // When the token was minted
	ExpiresAt time.Time // Hard expiry of the token
}

// SameIdentity reports whether two login claims refer to the same account.
// Identity is keyed on username alone; the timestamps of two tokens minted
// for the same account are expected to differ.
func (c *LoginClaims) SameIdentity(other *LoginClaims) bool {
	return c.Username == other.Username
}

// GrantClaims is the payload of a capability token. It carries a single
// resource reference rather than a user identity; redeeming it grants the
// redeeming user access to the underlying contact card.
type GrantClaims struct {
	ResourceID int64     // Persona or contact id, depending on the token kind
	IssuedAt   time.Time // When the token was minted
	ExpiresAt  time.Time // Hard expiry of the token
}

// RevokedToken is one entry of the revocation list: a token that must be
// rejected before its natural expiry. Entries are ordered by ExpiresAt so
// the reaper can evict the expired prefix without a full scan.
type RevokedToken struct {
	ExpiresAt time.Time // When the token would have expired on its own
	Token     string    // The raw signed token string
}
