package ports

import "context"

// Verifier is the protocol every token kind implements, parameterized by
// its claims payload. Verify checks signature, expiry and revocation;
// Blacklist records an explicit revocation and IsBlacklisted queries it.
// Capability verifiers keep Blacklist and IsBlacklisted as permanent
// no-ops since capability tokens are bounded purely by their lifetime.
type Verifier[C any] interface {
	Verify(ctx context.Context, token string) (C, error)
	Blacklist(ctx context.Context, token string) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
}

// Renewable is the rolling-refresh half of the identity token protocol:
// exchange a still-valid token for a fresh one without re-presenting
// credentials.
type Renewable interface {
	Reauthorize(ctx context.Context, token string) (string, error)
}
