package ports

import "github.com/calyx-labs/rolodex/core"

// Tokenizer converts between claim payloads and signed token strings. The
// decode direction verifies the MAC before trusting any embedded field;
// failures surface as core.ErrInvalidSignature, core.ErrMalformedToken or
// core.ErrTokenExpired.
type Tokenizer interface {
	// Identity token operations
	LoginToToken(claims *core.LoginClaims) (string, error)
	TokenToLogin(token string) (*core.LoginClaims, error)

	// Capability token operations
	PersonaGrantToToken(claims *core.GrantClaims) (string, error)
	TokenToPersonaGrant(token string) (*core.GrantClaims, error)
	ContactGrantToToken(claims *core.GrantClaims) (string, error)
	TokenToContactGrant(token string) (*core.GrantClaims, error)
}
